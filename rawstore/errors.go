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

package rawstore

import "errors"

var (
	// ErrStorage indicates a filesystem or I/O failure.
	ErrStorage = errors.New("storage error")

	// ErrBatchExists indicates the target batch location already exists.
	ErrBatchExists = errors.New("batch already exists")

	// ErrBatchNotFound indicates the requested batch does not exist.
	ErrBatchNotFound = errors.New("batch not found")

	// ErrDocumentNotFound indicates the requested document does not exist.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrDuplicateDocument indicates an attempt to overwrite a stored
	// document. Raw documents are immutable; a correction requires a new
	// ingestion.
	ErrDuplicateDocument = errors.New("duplicate document")

	// ErrConflict indicates a duplicate ingestion-log write with differing
	// content.
	ErrConflict = errors.New("ingestion log conflict")
)
