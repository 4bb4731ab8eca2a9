package memstore

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"

	"github.com/dvloznov/sales-dashboard/internal/record"
)

// Load reads a snapshot from a local path or a gs://bucket/object URI.
func Load(ctx context.Context, uri string) (*Store, error) {
	var (
		data []byte
		err  error
	)
	if strings.HasPrefix(uri, "gs://") {
		data, err = FetchFromGCS(ctx, uri)
	} else {
		data, err = os.ReadFile(uri)
	}
	if err != nil {
		return nil, fmt.Errorf("Load: reading snapshot %s: %w", uri, err)
	}

	records, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("Load: decoding snapshot %s: %w", uri, err)
	}
	return New(records), nil
}

// FetchFromGCS downloads the object bytes from the given gs:// URI.
func FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error) {
	bucketName, objectPath, err := SplitGCSURI(gcsURI)
	if err != nil {
		return nil, err
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("FetchFromGCS: creating storage client: %w", err)
	}
	defer client.Close()

	rc, err := client.Bucket(bucketName).Object(objectPath).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("FetchFromGCS: reading object %s/%s: %w", bucketName, objectPath, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("FetchFromGCS: reading bytes: %w", err)
	}
	return data, nil
}

// SplitGCSURI splits gs://bucket/path/to/object into bucket and object path.
func SplitGCSURI(gcsURI string) (string, string, error) {
	if !strings.HasPrefix(gcsURI, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", gcsURI)
	}
	parts := strings.SplitN(strings.TrimPrefix(gcsURI, "gs://"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", gcsURI)
	}
	return parts[0], parts[1], nil
}

// Decode parses an extended-JSON export: either a JSON array of documents or
// one document per line. Numbers are kept as json.Number so long phone numbers
// survive intact, and {"$oid": ...} identifiers are flattened to hex strings.
// Every other wrapped value is left for the normalizer.
func Decode(r io.Reader) ([]record.Record, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(br)
	dec.UseNumber()

	var docs []map[string]interface{}
	if first == '[' {
		if err := dec.Decode(&docs); err != nil {
			return nil, fmt.Errorf("decoding document array: %w", err)
		}
	} else {
		for {
			var doc map[string]interface{}
			err := dec.Decode(&doc)
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("decoding document %d: %w", len(docs)+1, err)
			}
			docs = append(docs, doc)
		}
	}

	records := make([]record.Record, 0, len(docs))
	for _, doc := range docs {
		r := record.Record(doc)
		if id := r.ID(); id != "" {
			r[record.FieldID] = id
		}
		records = append(records, r)
	}
	return records, nil
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		if err := br.UnreadByte(); err != nil {
			return 0, err
		}
		return b, nil
	}
}
