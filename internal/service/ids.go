package service

import (
	"fmt"

	"github.com/google/uuid"
)

func newDocumentID() string {
	return uuid.NewString()
}

// chunkID is deterministic per (document, ordinal) so re-ingesting a
// document overwrites its chunks instead of duplicating them.
func chunkID(documentID string, ordinal int) string {
	ns := uuid.NewSHA1(uuid.NameSpaceOID, []byte(documentID))
	return uuid.NewSHA1(ns, []byte(fmt.Sprintf("chunk:%d", ordinal))).String()
}
