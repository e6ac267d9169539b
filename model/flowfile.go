package model

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

const ATTR_FILENAME string = "filename"
const ATTR_UUID string = "uuid"
const ATTR_PATH string = "path"
const ATTR_ENTRY_DATE string = "entryDate"
const ATTR_LINEAGE_START_DATE string = "lineageStartDate"
const ATTR_FILE_SIZE string = "fileSize"
const ATTR_ORIGINAL_FILENAME string = "originalFilename"
const ATTR_MIME_TYPE string = "mime.type"

// FlowFile is the unit of data moving through a processor: opaque content
// plus a string attribute map.
type FlowFile struct {
	Id               string            `json:"id"`
	Attributes       map[string]string `json:"attributes"`
	Content          []byte            `json:"content"`
	EntryDate        time.Time         `json:"entryDate"`
	LineageStartDate time.Time         `json:"lineageStartDate"`
	PenalizedUntil   time.Time         `json:"penalizedUntil"`
}

// NewFlowFile creates a FlowFile identified by the uuid attribute of attrs,
// or a fresh uuid when there is none. Core attributes are stamped only when
// attrs does not already carry them.
func NewFlowFile(content []byte, attrs map[string]string) *FlowFile {
	now := time.Now()
	id := attrs[ATTR_UUID]
	if len(id) == 0 {
		id = uuid.NewString()
	}
	ff := &FlowFile{
		Id:               id,
		Attributes:       make(map[string]string, len(attrs)+6),
		Content:          content,
		EntryDate:        now,
		LineageStartDate: now,
	}
	for k, v := range attrs {
		ff.Attributes[k] = v
	}
	millis := strconv.FormatInt(now.UnixMilli(), 10)
	ff.setDefault(ATTR_UUID, id)
	ff.setDefault(ATTR_FILENAME, id)
	ff.setDefault(ATTR_PATH, "./")
	ff.setDefault(ATTR_ENTRY_DATE, millis)
	ff.setDefault(ATTR_LINEAGE_START_DATE, millis)
	ff.Attributes[ATTR_FILE_SIZE] = strconv.Itoa(len(content))
	return ff
}

func (ff *FlowFile) setDefault(key string, value string) {
	if _, ok := ff.Attributes[key]; !ok {
		ff.Attributes[key] = value
	}
}

// IsPenalized reports whether ff is held back from processing at now.
func (ff *FlowFile) IsPenalized(now time.Time) bool {
	return now.Before(ff.PenalizedUntil)
}

func (ff *FlowFile) GetAttribute(key string) string {
	return ff.Attributes[key]
}

func (ff *FlowFile) Size() int {
	return len(ff.Content)
}

// Clone returns a copy with a new identity in the same lineage.
func (ff *FlowFile) Clone() *FlowFile {
	id := uuid.NewString()
	clone := &FlowFile{
		Id:               id,
		Attributes:       make(map[string]string, len(ff.Attributes)),
		Content:          append([]byte(nil), ff.Content...),
		EntryDate:        time.Now(),
		LineageStartDate: ff.LineageStartDate,
	}
	for k, v := range ff.Attributes {
		clone.Attributes[k] = v
	}
	clone.Attributes[ATTR_UUID] = id
	return clone
}
