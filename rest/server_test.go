package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mohitkumar/scriptproc/model"
	"github.com/mohitkumar/scriptproc/processor"
	"github.com/mohitkumar/scriptproc/runner"
	"github.com/mohitkumar/scriptproc/script"
	"github.com/stretchr/testify/require"
)

type listDrainer struct {
	files []*model.FlowFile
	err   error
}

func (d *listDrainer) Drain(rel model.Relationship, count int) ([]*model.FlowFile, error) {
	if d.err != nil {
		return nil, d.err
	}
	if count > len(d.files) {
		count = len(d.files)
	}
	out := d.files[:count]
	d.files = d.files[count:]
	return out, nil
}

type memoryScriptStore struct {
	code string
}

func (m *memoryScriptStore) Save(ctx context.Context, code string) error {
	m.code = code
	return nil
}

func newTestServer(t *testing.T, opts ...Option) *Server {
	proc := processor.NewScriptProcessor("rest", script.BundledSource{}, script.NewEngine(script.EngineConfig{}))
	r, err := runner.New(proc)
	require.NoError(t, err)
	s, err := NewServer(0, r, opts...)
	require.NoError(t, err)
	return s
}

func do(t *testing.T, s *Server, method string, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func TestProcessorEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPut, "/properties/region", SetPropertyRequest{Value: "eu"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/processor", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var info ProcessorInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	require.Equal(t, "rest", info.Name)
	require.Len(t, info.Relationships, 2)
	require.Equal(t, []PropertyInfo{{Name: "region", Description: "Dynamic property: region", Dynamic: true, Value: "eu"}}, info.Properties)

	rec = do(t, s, http.MethodDelete, "/properties/region", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, s, http.MethodDelete, "/properties/region", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	req := httptest.NewRequest(http.MethodPut, "/properties/region", bytes.NewBufferString("{"))
	rec = httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFlowFileEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/flowfiles", EnqueueRequest{Content: "hello", Attributes: map[string]string{"filename": "h.txt"}})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, s, http.MethodPost, "/flowfiles", EnqueueRequest{Content: ""})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodPost, "/trigger?count=0", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/trigger?count=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var res map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, float64(0), res["queueSize"])

	rec = do(t, s, http.MethodGet, "/relationships/success", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var success []FlowFileView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &success))
	require.Len(t, success, 1)
	require.Equal(t, "hello", success[0].Content)
	require.Equal(t, "h.txt", success[0].Attributes["filename"])

	rec = do(t, s, http.MethodGet, "/relationships/failure", nil)
	var failure []FlowFileView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &failure))
	require.Len(t, failure, 1)

	rec = do(t, s, http.MethodGet, "/relationships/retry", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDrainRelationship(t *testing.T) {
	s := newTestServer(t)
	for i := 0; i < 3; i++ {
		rec := do(t, s, http.MethodPost, "/flowfiles", EnqueueRequest{Content: "x"})
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := do(t, s, http.MethodPost, "/trigger?count=3", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodDelete, "/relationships/success?count=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var drained []FlowFileView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &drained))
	require.Len(t, drained, 2)

	rec = do(t, s, http.MethodDelete, "/relationships/success", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &drained))
	require.Len(t, drained, 1)

	rec = do(t, s, http.MethodGet, "/relationships/success", nil)
	var left []FlowFileView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &left))
	require.Empty(t, left)

	rec = do(t, s, http.MethodDelete, "/relationships/success?count=-1", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, s, http.MethodDelete, "/relationships/retry", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDrainFromExternalSink(t *testing.T) {
	external := model.NewFlowFile([]byte("stored"), nil)
	d := &listDrainer{files: []*model.FlowFile{external}}
	s := newTestServer(t, WithDrainer(d))
	rec := do(t, s, http.MethodPost, "/flowfiles", EnqueueRequest{Content: "x"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, s, http.MethodPost, "/trigger", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodDelete, "/relationships/success", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var drained []FlowFileView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &drained))
	require.Len(t, drained, 1)
	require.Equal(t, external.Id, drained[0].Id)
	require.Equal(t, "stored", drained[0].Content)

	rec = do(t, s, http.MethodGet, "/relationships/success", nil)
	var left []FlowFileView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &left))
	require.Empty(t, left)

	d.err = errors.New("redis down")
	rec = do(t, s, http.MethodDelete, "/relationships/success", nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSaveScript(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodPut, "/script", SaveScriptRequest{Code: "1;"})
	require.Equal(t, http.StatusNotImplemented, rec.Code)

	store := &memoryScriptStore{}
	s := newTestServer(t, WithScriptStore(store))
	rec = do(t, s, http.MethodPut, "/script", SaveScriptRequest{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, s, http.MethodPut, "/script", SaveScriptRequest{Code: "session.get();"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "session.get();", store.code)
}
