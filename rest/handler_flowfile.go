package rest

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/mohitkumar/scriptproc/logger"
	"github.com/mohitkumar/scriptproc/model"
	"go.uber.org/zap"
)

type EnqueueRequest struct {
	Content    string            `json:"content"`
	Attributes map[string]string `json:"attributes"`
}

type FlowFileView struct {
	Id         string            `json:"id"`
	Attributes map[string]string `json:"attributes"`
	Content    string            `json:"content"`
}

func (s *Server) HandleEnqueue(w http.ResponseWriter, r *http.Request) {
	var req EnqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	defer r.Body.Close()
	ff := s.runner.Enqueue([]byte(req.Content), req.Attributes)
	respondOK(w, map[string]any{"uuid": ff.Id})
}

func (s *Server) HandleTrigger(w http.ResponseWriter, r *http.Request) {
	count := 1
	if c := r.URL.Query().Get("count"); len(c) != 0 {
		n, err := strconv.Atoi(c)
		if err != nil || n < 1 {
			respondWithError(w, http.StatusBadRequest, "count should be a positive number")
			return
		}
		count = n
	}
	if err := s.runner.Run(r.Context(), count); err != nil {
		logger.Error("error running processor", zap.Int("count", count), zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondOK(w, map[string]any{"triggered": count, "queueSize": s.runner.QueueSize()})
}

const DEFAULT_DRAIN_COUNT = 100

type SaveScriptRequest struct {
	Code string `json:"code"`
}

func (s *Server) relationship(name string) (model.Relationship, bool) {
	for _, known := range s.runner.Processor().Relationships() {
		if known.Name == name {
			return known, true
		}
	}
	return model.Relationship{}, false
}

func toViews(ffs []*model.FlowFile) []FlowFileView {
	out := make([]FlowFileView, 0, len(ffs))
	for _, ff := range ffs {
		out = append(out, FlowFileView{Id: ff.Id, Attributes: ff.Attributes, Content: string(ff.Content)})
	}
	return out
}

func (s *Server) HandleGetRelationship(w http.ResponseWriter, r *http.Request) {
	rel, ok := s.relationship(mux.Vars(r)["name"])
	if !ok {
		respondWithError(w, http.StatusNotFound, "relationship not found")
		return
	}
	respondWithJSON(w, http.StatusOK, toViews(s.runner.FlowFilesForRelationship(rel)))
}

// HandleDrainRelationship removes up to count routed FlowFiles and returns
// them. With an external drainer the in-memory copies are dropped as well.
func (s *Server) HandleDrainRelationship(w http.ResponseWriter, r *http.Request) {
	rel, ok := s.relationship(mux.Vars(r)["name"])
	if !ok {
		respondWithError(w, http.StatusNotFound, "relationship not found")
		return
	}
	count := DEFAULT_DRAIN_COUNT
	if c := r.URL.Query().Get("count"); len(c) != 0 {
		n, err := strconv.Atoi(c)
		if err != nil || n < 1 {
			respondWithError(w, http.StatusBadRequest, "count should be a positive number")
			return
		}
		count = n
	}
	drained := s.runner.DrainRelationship(rel, count)
	if s.drainer != nil {
		var err error
		drained, err = s.drainer.Drain(rel, count)
		if err != nil {
			logger.Error("error draining relationship", zap.String("relationship", rel.Name), zap.Error(err))
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	respondWithJSON(w, http.StatusOK, toViews(drained))
}

func (s *Server) HandleSaveScript(w http.ResponseWriter, r *http.Request) {
	if s.scripts == nil {
		respondWithError(w, http.StatusNotImplemented, "script source is read only")
		return
	}
	var req SaveScriptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	defer r.Body.Close()
	if len(req.Code) == 0 {
		respondWithError(w, http.StatusBadRequest, "code can not be empty")
		return
	}
	if err := s.scripts.Save(r.Context(), req.Code); err != nil {
		logger.Error("error saving script", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondOKWithoutBody(w)
}
