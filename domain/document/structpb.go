package document

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"
)

// Keys of the structpb form of documents and batches.
// Timestamps travel as RFC3339Nano strings.
const (
	keyID         = "id"
	keyCreateTime = "createTime"
	keyUpdateTime = "updateTime"
	keyFields     = "fields"
	keyType       = "type"
	keyDocument   = "document"
	keyCollection = "collection"
	keySnapshot   = "snapshot"
	keyChanges    = "changes"
)

func (d Document) ToStruct() (*structpb.Struct, error) {
	fields, err := structpb.NewStruct(d.Fields)
	if err != nil {
		return nil, fmt.Errorf("unsupported field value in %s: %w", d.ID, err)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		keyID:         structpb.NewStringValue(d.ID),
		keyCreateTime: structpb.NewStringValue(d.CreateTime.Format(time.RFC3339Nano)),
		keyUpdateTime: structpb.NewStringValue(d.UpdateTime.Format(time.RFC3339Nano)),
		keyFields:     structpb.NewStructValue(fields),
	}}, nil
}

func (d *Document) FromStruct(s *structpb.Struct) error {
	createTime, err := time.Parse(time.RFC3339Nano, s.GetFields()[keyCreateTime].GetStringValue())
	if err != nil {
		return fmt.Errorf("invalid createTime: %w", err)
	}
	updateTime, err := time.Parse(time.RFC3339Nano, s.GetFields()[keyUpdateTime].GetStringValue())
	if err != nil {
		return fmt.Errorf("invalid updateTime: %w", err)
	}
	*d = Document{
		ID:         s.GetFields()[keyID].GetStringValue(),
		Fields:     s.GetFields()[keyFields].GetStructValue().AsMap(),
		CreateTime: createTime.UTC(),
		UpdateTime: updateTime.UTC(),
	}
	return nil
}

func (b Batch) ToStruct() (*structpb.Struct, error) {
	changes := make([]*structpb.Value, 0, len(b.Changes))
	for _, change := range b.Changes {
		doc, err := change.Document.ToStruct()
		if err != nil {
			return nil, err
		}
		changes = append(changes, structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			keyType:     structpb.NewStringValue(string(change.Type)),
			keyDocument: structpb.NewStructValue(doc),
		}}))
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		keyCollection: structpb.NewStringValue(b.Collection),
		keySnapshot:   structpb.NewBoolValue(b.Snapshot),
		keyChanges:    structpb.NewListValue(&structpb.ListValue{Values: changes}),
	}}, nil
}

func (b *Batch) FromStruct(s *structpb.Struct) error {
	batch := Batch{
		Collection: s.GetFields()[keyCollection].GetStringValue(),
		Snapshot:   s.GetFields()[keySnapshot].GetBoolValue(),
	}
	for _, value := range s.GetFields()[keyChanges].GetListValue().GetValues() {
		change := value.GetStructValue()
		var doc Document
		if err := doc.FromStruct(change.GetFields()[keyDocument].GetStructValue()); err != nil {
			return err
		}
		batch.Changes = append(batch.Changes, Change{
			Type:     ChangeType(change.GetFields()[keyType].GetStringValue()),
			Document: doc,
		})
	}
	*b = batch
	return nil
}
