package handlers

import (
	"net/http"

	"github.com/Harshitk-cp/curator/internal/domain"
	"github.com/Harshitk-cp/curator/internal/knowledge"
)

type KnowledgeHandler struct {
	kb *knowledge.Base
}

func NewKnowledgeHandler(kb *knowledge.Base) *KnowledgeHandler {
	return &KnowledgeHandler{kb: kb}
}

type artifactsResponse struct {
	Artifacts []domain.ArtifactRecord `json:"artifacts"`
}

type sectionsResponse struct {
	Sections []domain.Section `json:"sections"`
}

func (h *KnowledgeHandler) Artifacts(w http.ResponseWriter, r *http.Request) {
	artifacts := h.kb.Artifacts()
	if section := r.URL.Query().Get("section"); section != "" {
		var filtered []domain.ArtifactRecord
		for _, a := range artifacts {
			if a.Section == domain.SectionID(section) {
				filtered = append(filtered, a)
			}
		}
		artifacts = filtered
	}
	if artifacts == nil {
		artifacts = []domain.ArtifactRecord{}
	}
	writeJSON(w, http.StatusOK, artifactsResponse{Artifacts: artifacts})
}

func (h *KnowledgeHandler) Sections(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sectionsResponse{Sections: h.kb.Sections()})
}
