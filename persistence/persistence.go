package persistence

import "fmt"

type StorageLayerError struct {
	Message string
}

func (e StorageLayerError) Error() string {
	return fmt.Sprintf("storage layer error %s", e.Message)
}

const RELATIONSHIP_PREFIX string = "REL"
const SCRIPT_PREFIX string = "SCRIPT"
