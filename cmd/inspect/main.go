// Command inspect dumps one collection of a docstore badger directory,
// in creation order, without taking the lock of a running server.
package main

import (
	"chat-wall/domain/document"
	"chat-wall/infrastructure/storage"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	db, err := openDB(cfg.BadgerFilepath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	docs, err := scan(db, fmt.Sprintf("doc:%s:%s:", cfg.ProjectID, cfg.Collection))
	if err != nil {
		log.Fatal(err)
	}
	render(os.Stdout, docs, cfg.Colours)
}

// scan reads every document under prefix. Secondary index keys live under
// "idx:" and never match a document prefix.
func scan(db *badger.DB, prefix string) ([]document.Document, error) {
	var docs []document.Document
	err := db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			err := item.Value(func(v []byte) error {
				doc, err := storage.DecodeRecord(v)
				if err != nil {
					// Keep dumping the rest of the collection
					fmt.Printf("Error decoding key %s: %v\n", string(item.Key()), err)
					return nil
				}
				docs = append(docs, doc)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return docs, err
}

func render(w io.Writer, docs []document.Document, colours bool) {
	table := tablewriter.NewWriter(w)
	header := []string{"ID", "Author", "Text", "Created", "Edited"}
	if colours {
		for i, h := range header {
			header[i] = color.New(color.FgGreen, color.OpBold).Render(h)
		}
	}
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, doc := range docs {
		// First 8 characters are enough to tell documents apart
		displayID := doc.ID
		if len(displayID) > 8 {
			displayID = displayID[:8]
		}
		edited := ""
		if doc.Merged() {
			edited = doc.UpdateTime.Local().Format(time.DateTime)
			if colours {
				edited = color.Yellow.Render(edited)
			}
		}
		table.Append([]string{
			displayID,
			doc.String("author"),
			strings.ReplaceAll(doc.String("text"), "\n", " "),
			doc.CreateTime.Local().Format(time.DateTime),
			edited,
		})
	}
	table.Render()
	fmt.Fprintf(w, "%d documents\n", len(docs))
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)
	return badger.Open(opts)
}
