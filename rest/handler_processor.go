package rest

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/mohitkumar/scriptproc/logger"
	"github.com/mohitkumar/scriptproc/model"
	"go.uber.org/zap"
)

type PropertyInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Dynamic     bool   `json:"dynamic"`
	Value       string `json:"value,omitempty"`
}

type ProcessorInfo struct {
	Name          string               `json:"name"`
	Relationships []model.Relationship `json:"relationships"`
	Properties    []PropertyInfo       `json:"properties"`
	QueueSize     int                  `json:"queueSize"`
}

type SetPropertyRequest struct {
	Value string `json:"value"`
}

func (s *Server) HandleGetProcessor(w http.ResponseWriter, r *http.Request) {
	proc := s.runner.Processor()
	values := s.runner.Context().Properties()
	info := ProcessorInfo{
		Name:          proc.Name(),
		Relationships: proc.Relationships(),
		Properties:    []PropertyInfo{},
		QueueSize:     s.runner.QueueSize(),
	}
	seen := make(map[string]bool)
	for _, d := range proc.SupportedPropertyDescriptors() {
		seen[d.Name] = true
		info.Properties = append(info.Properties, PropertyInfo{Name: d.Name, Description: d.Description, Required: d.Required, Value: values[d.Name]})
	}
	for _, d := range s.runner.Context().Descriptors() {
		if seen[d.Name] {
			continue
		}
		info.Properties = append(info.Properties, PropertyInfo{Name: d.Name, Description: d.Description, Dynamic: d.Dynamic, Value: values[d.Name]})
	}
	respondWithJSON(w, http.StatusOK, info)
}

func (s *Server) HandleSetProperty(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	var req SetPropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	defer r.Body.Close()
	res := s.runner.SetProperty(name, req.Value)
	if !res.Valid {
		logger.Info("invalid property value", zap.String("property", name), zap.String("reason", res.Explanation))
		respondWithJSON(w, http.StatusBadRequest, res)
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}

func (s *Server) HandleRemoveProperty(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if !s.runner.RemoveProperty(name) {
		respondWithError(w, http.StatusNotFound, "property not set")
		return
	}
	respondOKWithoutBody(w)
}
