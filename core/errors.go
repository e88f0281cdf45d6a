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

import "errors"

// Domain validation errors
var (
	// ErrInvalidSourceType indicates an unrecognized source type value.
	ErrInvalidSourceType = errors.New("invalid source type")

	// ErrInvalidBatchID indicates a batch identifier failed validation.
	ErrInvalidBatchID = errors.New("invalid batch id")

	// ErrInvalidDocumentID indicates a document identifier failed validation.
	ErrInvalidDocumentID = errors.New("invalid document id")

	// ErrInvalidMetadata indicates a DocumentMetadata failed validation.
	ErrInvalidMetadata = errors.New("invalid document metadata")

	// ErrEmptySourceID indicates the SourceID field is empty.
	ErrEmptySourceID = errors.New("source id cannot be empty")

	// ErrEmptySourceName indicates the SourceName field is empty.
	ErrEmptySourceName = errors.New("source name cannot be empty")

	// ErrZeroIngestedAt indicates IngestedAt was never set.
	ErrZeroIngestedAt = errors.New("ingested_at must be set")
)
