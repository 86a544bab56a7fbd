// Copyright 2025 The Sigstore Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package signing

// State is a stage of the signing pipeline. Stages only move forward.
type State int

const (
	StateStart State = iota
	StatePlaceholderReserved
	StateDigestComputed
	StateContainerBuilt
	StateFilled
	StateDone
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StatePlaceholderReserved:
		return "placeholder reserved"
	case StateDigestComputed:
		return "digest computed"
	case StateContainerBuilt:
		return "container built"
	case StateFilled:
		return "filled"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}
