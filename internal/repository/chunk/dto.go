package chunk

import (
	"encoding/binary"
	"math"
	"strings"

	"github.com/meridian-cloud/chatdex/internal/db"
	"github.com/meridian-cloud/chatdex/internal/domain"
)

// Reserved hash field names; metadata keys are stored as plain fields.
const (
	fieldContent = "__content"
	fieldVector  = "__vector"
)

func toHashFields(c *domain.Chunk) map[string]string {
	fields := make(map[string]string, len(c.Metadata)+2)
	for k, v := range c.Metadata {
		if strings.HasPrefix(k, "__") {
			continue
		}
		fields[k] = v
	}
	fields[fieldContent] = c.Content
	fields[fieldVector] = vectorToFieldBytes(c.Vector)
	return fields
}

func fromSearchEntry(entry db.SearchEntry) domain.Chunk {
	c := domain.Chunk{
		ID:       strings.TrimPrefix(entry.Key, keyPrefix),
		Metadata: make(map[string]string),
	}
	for k, v := range entry.Fields {
		switch k {
		case fieldContent:
			c.Content = v
		default:
			if strings.HasPrefix(k, "__") {
				// reserved fields (stored vector, store-side score) stay internal
				continue
			}
			c.Metadata[k] = v
		}
	}
	return c
}

func vectorToFieldBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
