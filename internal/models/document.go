package models

import "time"

// CatalogDocument is the Firestore record the processing pipeline keeps for each
// uploaded PDF. The viewer only reads it to turn a catalog locator into a
// fetchable source URI.
type CatalogDocument struct {
	FileHash         string    `firestore:"fileHash,omitempty"`
	OriginalFilename string    `firestore:"originalFilename,omitempty"`
	Status           string    `firestore:"status,omitempty"`
	SourceURI        string    `firestore:"sourceUri,omitempty"`
	PageCount        int       `firestore:"pageCount,omitempty"`
	CreatedAt        time.Time `firestore:"createdAt,omitempty"`
}
