// Copyright 2026 Corvid Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package vectorindex

import (
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
)

// Entry is one indexed chunk: its text, embedding vector, and flattened
// source metadata.
type Entry struct {
	Text     string
	Vector   []float32
	Metadata map[string]string
}

var (
	vectorMUS   = ord.NewSliceSer[float32](raw.Float32)
	metadataMUS = ord.NewMapSer[string, string](ord.String, ord.String)
)

// EntryMUS serializes entries for badger storage.
var EntryMUS = entryMUS{}

type entryMUS struct{}

func (entryMUS) Marshal(e Entry, bs []byte) (n int) {
	n = ord.String.Marshal(e.Text, bs)
	n += vectorMUS.Marshal(e.Vector, bs[n:])
	n += metadataMUS.Marshal(e.Metadata, bs[n:])
	return
}

func (entryMUS) Unmarshal(bs []byte) (e Entry, n int, err error) {
	e.Text, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	e.Vector, n1, err = vectorMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	e.Metadata, n1, err = metadataMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (entryMUS) Size(e Entry) (size int) {
	size = ord.String.Size(e.Text)
	size += vectorMUS.Size(e.Vector)
	return size + metadataMUS.Size(e.Metadata)
}

func (entryMUS) Skip(bs []byte) (n int, err error) {
	n, err = ord.String.Skip(bs)
	if err != nil {
		return
	}
	var n1 int
	n1, err = vectorMUS.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = metadataMUS.Skip(bs[n:])
	n += n1
	return
}

// MarshalEntry serializes an Entry to bytes.
func MarshalEntry(e *Entry) []byte {
	buf := make([]byte, EntryMUS.Size(*e))
	EntryMUS.Marshal(*e, buf)
	return buf
}

// UnmarshalEntry deserializes an Entry from bytes.
func UnmarshalEntry(data []byte) (*Entry, error) {
	entry, _, err := EntryMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
