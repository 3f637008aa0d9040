// Package nats relays committed changes through a NATS server so that
// widgets can listen without holding a stream open on the store.
package nats

import (
	"chat-wall/domain/document"
	"fmt"

	"github.com/nats-io/nats.go"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Subject returns the subject the changes of a collection are published on.
func Subject(project, collection string) string {
	return fmt.Sprintf("docstore.%s.%s", project, collection)
}

// Connect opens a connection that keeps reconnecting in the background.
func Connect(url, name string) (*nats.Conn, error) {
	nc, err := nats.Connect(url, nats.Name(name), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return nc, nil
}

// Batches travel as the protobuf form of their structpb representation.
func encodeBatch(batch document.Batch) ([]byte, error) {
	s, err := batch.ToStruct()
	if err != nil {
		return nil, fmt.Errorf("failed to convert batch: %w", err)
	}
	data, err := proto.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal batch: %w", err)
	}
	return data, nil
}

func decodeBatch(data []byte) (document.Batch, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return document.Batch{}, fmt.Errorf("failed to unmarshal batch: %w", err)
	}
	var batch document.Batch
	if err := batch.FromStruct(&s); err != nil {
		return document.Batch{}, fmt.Errorf("invalid batch: %w", err)
	}
	return batch, nil
}

// resyncMarker tells the feeds that changes may have been missed.
func resyncMarker(collection string) document.Batch {
	return document.Batch{Collection: collection, Snapshot: true}
}
