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

package core

import (
	"fmt"
	"strings"
)

// ValidateSourceType validates a SourceType value.
func ValidateSourceType(st SourceType) error {
	switch st {
	case SourceChat, SourceWiki, SourceUpload:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidSourceType, st)
	}
}

// ValidateBatchID validates a batch identifier.
//
// Validation rules:
//   - must not be empty
//   - must not contain path separators or traverse upward
func ValidateBatchID(id BatchID) error {
	if id == "" {
		return fmt.Errorf("%w: empty", ErrInvalidBatchID)
	}
	if strings.ContainsAny(string(id), "/\\") || strings.Contains(string(id), "..") {
		return fmt.Errorf("%w: %q", ErrInvalidBatchID, id)
	}
	return nil
}

// ValidateDocumentID validates a document identifier within a batch.
// Same filesystem-safety rules as batch identifiers, plus the reserved
// manifest name.
func ValidateDocumentID(id DocumentID) error {
	if id == "" {
		return fmt.Errorf("%w: empty", ErrInvalidDocumentID)
	}
	if strings.ContainsAny(string(id), "/\\") || strings.Contains(string(id), "..") {
		return fmt.Errorf("%w: %q", ErrInvalidDocumentID, id)
	}
	if id == "metadata" {
		return fmt.Errorf("%w: %q is reserved", ErrInvalidDocumentID, id)
	}
	return nil
}

// ValidateMetadata validates a DocumentMetadata according to domain rules.
//
// Validation rules:
//   - SourceType must be valid
//   - SourceID and SourceName must not be empty
//   - IngestedAt must be set
//
// NOT validated (optional fields):
//   - SourceTimestamp, Author, Title, URL, Extra
func ValidateMetadata(m DocumentMetadata) error {
	if err := ValidateSourceType(m.SourceType); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMetadata, err)
	}
	if m.SourceID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidMetadata, ErrEmptySourceID)
	}
	if m.SourceName == "" {
		return fmt.Errorf("%w: %w", ErrInvalidMetadata, ErrEmptySourceName)
	}
	if m.IngestedAt.IsZero() {
		return fmt.Errorf("%w: %w", ErrInvalidMetadata, ErrZeroIngestedAt)
	}
	return nil
}
