package docstore

import (
	"chat-wall/domain/document"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"
)

const (
	keyCollection = "collection"
	keyID         = "id"
	keyFields     = "fields"
	keyDocument   = "document"
	keyDocuments  = "documents"
)

type InsertRequest struct {
	Collection string
	Fields     document.Fields
}

func (r InsertRequest) ToStruct() (*structpb.Struct, error) {
	fields, err := structpb.NewStruct(r.Fields)
	if err != nil {
		return nil, fmt.Errorf("unsupported field value: %w", err)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		keyCollection: structpb.NewStringValue(r.Collection),
		keyFields:     structpb.NewStructValue(fields),
	}}, nil
}

func (r *InsertRequest) FromStruct(s *structpb.Struct) error {
	r.Collection = s.GetFields()[keyCollection].GetStringValue()
	r.Fields = s.GetFields()[keyFields].GetStructValue().AsMap()
	return nil
}

type ListRequest struct {
	Collection string
}

func (r ListRequest) ToStruct() (*structpb.Struct, error) {
	return collectionStruct(r.Collection), nil
}

func (r *ListRequest) FromStruct(s *structpb.Struct) error {
	r.Collection = s.GetFields()[keyCollection].GetStringValue()
	return nil
}

type ListResponse struct {
	Documents []document.Document
}

func (r ListResponse) ToStruct() (*structpb.Struct, error) {
	docs := make([]*structpb.Value, 0, len(r.Documents))
	for _, doc := range r.Documents {
		s, err := doc.ToStruct()
		if err != nil {
			return nil, err
		}
		docs = append(docs, structpb.NewStructValue(s))
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		keyDocuments: structpb.NewListValue(&structpb.ListValue{Values: docs}),
	}}, nil
}

func (r *ListResponse) FromStruct(s *structpb.Struct) error {
	r.Documents = nil
	for _, value := range s.GetFields()[keyDocuments].GetListValue().GetValues() {
		var doc document.Document
		if err := doc.FromStruct(value.GetStructValue()); err != nil {
			return err
		}
		r.Documents = append(r.Documents, doc)
	}
	return nil
}

type MergeRequest struct {
	Collection string
	ID         string
	Fields     document.Fields
}

func (r MergeRequest) ToStruct() (*structpb.Struct, error) {
	fields, err := structpb.NewStruct(r.Fields)
	if err != nil {
		return nil, fmt.Errorf("unsupported field value in %s: %w", r.ID, err)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		keyCollection: structpb.NewStringValue(r.Collection),
		keyID:         structpb.NewStringValue(r.ID),
		keyFields:     structpb.NewStructValue(fields),
	}}, nil
}

func (r *MergeRequest) FromStruct(s *structpb.Struct) error {
	r.Collection = s.GetFields()[keyCollection].GetStringValue()
	r.ID = s.GetFields()[keyID].GetStringValue()
	r.Fields = s.GetFields()[keyFields].GetStructValue().AsMap()
	return nil
}

type DeleteRequest struct {
	Collection string
	ID         string
}

func (r DeleteRequest) ToStruct() (*structpb.Struct, error) {
	s := collectionStruct(r.Collection)
	s.Fields[keyID] = structpb.NewStringValue(r.ID)
	return s, nil
}

func (r *DeleteRequest) FromStruct(s *structpb.Struct) error {
	r.Collection = s.GetFields()[keyCollection].GetStringValue()
	r.ID = s.GetFields()[keyID].GetStringValue()
	return nil
}

type DeleteResponse struct{}

func (DeleteResponse) ToStruct() (*structpb.Struct, error) {
	return &structpb.Struct{Fields: map[string]*structpb.Value{}}, nil
}

func (*DeleteResponse) FromStruct(*structpb.Struct) error {
	return nil
}

type DocumentResponse struct {
	Document document.Document
}

func (r DocumentResponse) ToStruct() (*structpb.Struct, error) {
	doc, err := r.Document.ToStruct()
	if err != nil {
		return nil, err
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		keyDocument: structpb.NewStructValue(doc),
	}}, nil
}

func (r *DocumentResponse) FromStruct(s *structpb.Struct) error {
	return r.Document.FromStruct(s.GetFields()[keyDocument].GetStructValue())
}

type ListenRequest struct {
	Collection string
}

func (r ListenRequest) ToStruct() (*structpb.Struct, error) {
	return collectionStruct(r.Collection), nil
}

func (r *ListenRequest) FromStruct(s *structpb.Struct) error {
	r.Collection = s.GetFields()[keyCollection].GetStringValue()
	return nil
}

func collectionStruct(collection string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		keyCollection: structpb.NewStringValue(collection),
	}}
}
