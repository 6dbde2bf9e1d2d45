package gcp

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/Lllllllleong/pdfviewerbridge/internal/models"
	"github.com/Lllllllleong/pdfviewerbridge/internal/source"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// NewFirestoreClient creates and returns a new Firestore client for the given project ID.
func NewFirestoreClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return client, nil
}

// Catalog resolves catalog: locators against the pipeline's document collection.
type Catalog struct {
	client     *firestore.Client
	collection string
}

// NewCatalog reads document records from collection.
func NewCatalog(client *firestore.Client, collection string) *Catalog {
	return &Catalog{client: client, collection: collection}
}

// SourceURI returns the sourceUri of the document record with the given ID.
func (c *Catalog) SourceURI(ctx context.Context, documentID string) (string, error) {
	if documentID == "" {
		return "", fmt.Errorf("empty document ID: %w", source.ErrNotFound)
	}
	snap, err := c.client.Collection(c.collection).Doc(documentID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return "", fmt.Errorf("%s/%s: %w", c.collection, documentID, source.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read document %s: %w", documentID, err)
	}

	var doc models.CatalogDocument
	if err := snap.DataTo(&doc); err != nil {
		return "", fmt.Errorf("failed to decode document %s: %w", documentID, err)
	}
	if doc.SourceURI == "" {
		return "", fmt.Errorf("document %s has no source URI: %w", documentID, source.ErrNotFound)
	}
	return doc.SourceURI, nil
}
