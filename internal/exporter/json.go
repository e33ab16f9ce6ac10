package exporter

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"

	"dtindex/pkg/contracts/domain"
)

// WriteJSON writes view as an array of row objects whose keys follow the
// column order. Non-ASCII text is written literally.
func WriteJSON(w io.Writer, view *domain.Dataset) error {
	bw := bufio.NewWriter(w)
	cols := header(view)

	bw.WriteByte('[')
	if view != nil {
		for i, rec := range view.Records {
			if i > 0 {
				bw.WriteByte(',')
			}
			bw.WriteByte('{')
			for j, col := range cols {
				if j > 0 {
					bw.WriteByte(',')
				}
				if err := writeJSONValue(bw, col); err != nil {
					return err
				}
				bw.WriteByte(':')

				var value interface{}
				switch j {
				case 0:
					value = rec.EntityID
				case 1:
					value = rec.EntityName
				case 2:
					value = rec.Year
				default:
					if v, ok := rec.Value(col); ok {
						value = v
					}
				}
				if err := writeJSONValue(bw, value); err != nil {
					return err
				}
			}
			bw.WriteByte('}')
		}
	}
	bw.WriteByte(']')
	return bw.Flush()
}

// writeJSONValue encodes v without HTML escaping or a trailing newline
func writeJSONValue(w io.Writer, v interface{}) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	_, err := w.Write(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
	return err
}
