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


// Package search answers natural-language queries against the vector index.
//
// A query is embedded with the same model the index was built with, scored
// against every indexed chunk, and boosted when the chunk contains every
// meaningful query word verbatim. Results carry the chunk text plus its
// flattened source metadata, so callers can attribute every hit to the
// channel, page, or file it came from.
package search
