package session

import (
	"errors"
	"testing"
	"time"

	"github.com/mohitkumar/scriptproc/model"
	"github.com/stretchr/testify/require"
)

type recordingCollector struct {
	transfers map[string]string
}

func (rc *recordingCollector) RecordTransfer(processor string, flowFileId string, relationship string, size int) {
	rc.transfers[flowFileId] = relationship
}

func (rc *recordingCollector) RecordFailure(processor string, reason string) {}

type failingSink struct{}

func (failingSink) Deliver(rel model.Relationship, ffs []*model.FlowFile) error {
	return errors.New("sink down")
}

func newTestSession(ffs ...*model.FlowFile) (*ProcessSession, *Queue, *MemorySink) {
	q := NewQueue()
	q.Offer(ffs...)
	sink := NewMemorySink()
	s := NewProcessSession("test", []model.Relationship{model.Success, model.Failure}, q, time.Hour, nil, sink)
	return s, q, sink
}

func TestSession(t *testing.T) {
	for scenario, fn := range map[string]func(t *testing.T){
		"get from empty queue":        testGetEmpty,
		"transfer and commit":         testTransferCommit,
		"commit needs routing":        testCommitUnrouted,
		"unknown relationship":        testUnknownRelationship,
		"foreign flowfile":            testForeignFlowFile,
		"rollback restores originals": testRollback,
		"rollback without penalty":    testRollbackWithoutPenalty,
		"penalize marks flowfile":     testPenalize,
		"failed sink stops later":     testFailedSinkStopsLaterSinks,
		"remove drops flowfile":       testRemove,
		"clone and create":            testCloneCreate,
		"uuid is immutable":           testUuidImmutable,
		"sink error surfaces":         testSinkError,
		"collector sees transfers":    testCollector,
	} {
		t.Run(scenario, fn)
	}
}

func testGetEmpty(t *testing.T) {
	s, _, _ := newTestSession()
	require.Nil(t, s.Get())
	require.Empty(t, s.GetBatch(5))
	require.NoError(t, s.Commit())
}

func testTransferCommit(t *testing.T) {
	a := model.NewFlowFile([]byte("a"), nil)
	b := model.NewFlowFile([]byte("b"), nil)
	s, q, sink := newTestSession(a, b)

	ffs := s.GetBatch(10)
	require.Len(t, ffs, 2)
	require.Equal(t, 0, q.Size())

	ff, err := s.PutAttribute(ffs[0], "route", "ok")
	require.NoError(t, err)
	require.NoError(t, s.Transfer(ff, model.Success))
	ff, err = s.Write(ffs[1], "rewritten")
	require.NoError(t, err)
	require.NoError(t, s.Transfer(ff, model.Failure))
	require.NoError(t, s.Commit())

	success := sink.FlowFiles(model.Success)
	require.Len(t, success, 1)
	require.Equal(t, "ok", success[0].GetAttribute("route"))
	require.Empty(t, a.GetAttribute("route"))

	failure := sink.FlowFiles(model.Failure)
	require.Len(t, failure, 1)
	require.Equal(t, "rewritten", string(failure[0].Content))
	require.Equal(t, "9", failure[0].GetAttribute(model.ATTR_FILE_SIZE))
}

func testCommitUnrouted(t *testing.T) {
	s, _, _ := newTestSession(model.NewFlowFile([]byte("x"), nil))
	require.NotNil(t, s.Get())
	require.Error(t, s.Commit())
}

func testUnknownRelationship(t *testing.T) {
	s, _, _ := newTestSession(model.NewFlowFile([]byte("x"), nil))
	ff := s.Get()
	err := s.Transfer(ff, model.Relationship{Name: "retry"})
	require.Error(t, err)
}

func testForeignFlowFile(t *testing.T) {
	s, _, _ := newTestSession()
	_, err := s.PutAttribute(model.NewFlowFile(nil, nil), "k", "v")
	require.Error(t, err)
	require.Error(t, s.Transfer(nil, model.Success))
}

func testRollback(t *testing.T) {
	orig := model.NewFlowFile([]byte("keep"), map[string]string{"k": "v"})
	s, q, sink := newTestSession(orig)

	ff := s.Get()
	_, err := s.Write(ff, "changed")
	require.NoError(t, err)
	require.NoError(t, s.Transfer(ff, model.Success))
	s.Create()
	s.Rollback(true)

	require.Equal(t, 1, q.Size())
	require.Equal(t, 0, q.Available())
	require.Nil(t, q.Poll())
	back := q.items[0]
	require.Same(t, orig, back)
	require.Equal(t, "keep", string(back.Content))
	require.True(t, back.IsPenalized(time.Now()))
	require.Empty(t, sink.FlowFiles(model.Success))
}

func testRollbackWithoutPenalty(t *testing.T) {
	orig := model.NewFlowFile([]byte("x"), nil)
	s, q, _ := newTestSession(orig)
	require.NotNil(t, s.Get())
	s.Rollback(false)
	require.Same(t, orig, q.Poll())
}

func testPenalize(t *testing.T) {
	s, _, sink := newTestSession(model.NewFlowFile([]byte("x"), nil))
	ff, err := s.Penalize(s.Get())
	require.NoError(t, err)
	require.NoError(t, s.Transfer(ff, model.Failure))
	require.NoError(t, s.Commit())
	require.True(t, sink.FlowFiles(model.Failure)[0].IsPenalized(time.Now()))
}

func testFailedSinkStopsLaterSinks(t *testing.T) {
	q := NewQueue()
	q.Offer(model.NewFlowFile(nil, nil))
	results := NewMemorySink()
	s := NewProcessSession("test", []model.Relationship{model.Success}, q, 0, nil, failingSink{}, results)
	require.NoError(t, s.Transfer(s.Get(), model.Success))
	require.Error(t, s.Commit())
	require.Empty(t, results.FlowFiles(model.Success))
}

func testRemove(t *testing.T) {
	s, _, sink := newTestSession(model.NewFlowFile([]byte("x"), nil))
	ff := s.Get()
	require.NoError(t, s.Transfer(ff, model.Success))
	require.NoError(t, s.Remove(ff))
	_, err := s.Read(ff)
	require.Error(t, err)
	require.NoError(t, s.Commit())
	require.Empty(t, sink.FlowFiles(model.Success))
}

func testCloneCreate(t *testing.T) {
	s, _, sink := newTestSession(model.NewFlowFile([]byte("x"), nil))
	ff := s.Get()
	clone, err := s.Clone(ff)
	require.NoError(t, err)
	created := s.Create()

	require.NoError(t, s.Transfer(ff, model.Success))
	require.NoError(t, s.Transfer(clone, model.Success))
	require.Error(t, s.Commit())

	require.NoError(t, s.Transfer(created, model.Failure))
	require.NoError(t, s.Commit())
	require.Len(t, sink.FlowFiles(model.Success), 2)
	require.Len(t, sink.FlowFiles(model.Failure), 1)
}

func testUuidImmutable(t *testing.T) {
	s, _, _ := newTestSession(model.NewFlowFile(nil, nil))
	ff := s.Get()
	id := ff.GetAttribute(model.ATTR_UUID)
	ff, err := s.PutAttribute(ff, model.ATTR_UUID, "other")
	require.NoError(t, err)
	ff, err = s.RemoveAttribute(ff, model.ATTR_UUID)
	require.NoError(t, err)
	require.Equal(t, id, ff.GetAttribute(model.ATTR_UUID))
}

func testSinkError(t *testing.T) {
	q := NewQueue()
	q.Offer(model.NewFlowFile(nil, nil))
	s := NewProcessSession("test", []model.Relationship{model.Success}, q, 0, nil, failingSink{})
	require.NoError(t, s.Transfer(s.Get(), model.Success))
	require.Error(t, s.Commit())
}

func testCollector(t *testing.T) {
	q := NewQueue()
	in := model.NewFlowFile([]byte("x"), nil)
	q.Offer(in)
	rc := &recordingCollector{transfers: make(map[string]string)}
	s := NewProcessSession("test", []model.Relationship{model.Success}, q, 0, rc, NewMemorySink())
	require.NoError(t, s.Transfer(s.Get(), model.Success))
	require.NoError(t, s.Commit())
	require.Equal(t, "success", rc.transfers[in.Id])
}

func TestQueueOrder(t *testing.T) {
	q := NewQueue()
	a, b, c := model.NewFlowFile(nil, nil), model.NewFlowFile(nil, nil), model.NewFlowFile(nil, nil)
	q.Offer(a, b)
	q.Requeue(c)
	require.Equal(t, 3, q.Size())
	require.Same(t, c, q.Poll())
	require.Equal(t, []*model.FlowFile{a, b}, q.PollBatch(5))
	require.Nil(t, q.Poll())
}

func TestQueueSkipsPenalized(t *testing.T) {
	q := NewQueue()
	held := model.NewFlowFile(nil, nil)
	held.PenalizedUntil = time.Now().Add(time.Hour)
	expired := model.NewFlowFile(nil, nil)
	expired.PenalizedUntil = time.Now().Add(-time.Second)
	free := model.NewFlowFile(nil, nil)
	q.Offer(held, expired, free)

	require.Equal(t, 3, q.Size())
	require.Equal(t, 2, q.Available())
	require.Equal(t, []*model.FlowFile{expired, free}, q.PollBatch(5))
	require.Nil(t, q.Poll())
	require.Equal(t, 1, q.Size())
}

func TestMemorySinkDrain(t *testing.T) {
	m := NewMemorySink()
	a, b := model.NewFlowFile(nil, nil), model.NewFlowFile(nil, nil)
	require.NoError(t, m.Deliver(model.Success, []*model.FlowFile{a, b}))
	require.NoError(t, m.Deliver(model.Failure, []*model.FlowFile{b}))

	require.Equal(t, []*model.FlowFile{a}, m.Drain(model.Success, 1))
	require.Equal(t, []*model.FlowFile{b}, m.Drain(model.Success, 0))
	require.Empty(t, m.FlowFiles(model.Success))
	require.Len(t, m.FlowFiles(model.Failure), 1)
}

func TestFanOutSink(t *testing.T) {
	m1, m2 := NewMemorySink(), NewMemorySink()
	ff := model.NewFlowFile(nil, nil)
	require.NoError(t, NewFanOutSink(m1, m2).Deliver(model.Success, []*model.FlowFile{ff}))
	require.Len(t, m1.FlowFiles(model.Success), 1)
	require.Len(t, m2.FlowFiles(model.Success), 1)

	require.Error(t, NewFanOutSink(m1, failingSink{}).Deliver(model.Success, nil))
}
