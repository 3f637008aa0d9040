package storage

import (
	"chat-wall/domain/document"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Record values are the structpb form of the document: id, both store
// timestamps and the user fields as a nested struct.
func encodeRecord(doc document.Document) ([]byte, error) {
	record, err := doc.ToStruct()
	if err != nil {
		return nil, err
	}
	return proto.Marshal(record)
}

func decodeRecord(value []byte) (document.Document, error) {
	var record structpb.Struct
	if err := proto.Unmarshal(value, &record); err != nil {
		return document.Document{}, err
	}
	var doc document.Document
	err := doc.FromStruct(&record)
	return doc, err
}

// DecodeRecord is exported for read-only tools dumping the database.
func DecodeRecord(value []byte) (document.Document, error) {
	return decodeRecord(value)
}
