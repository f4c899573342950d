/*
Copyright 2023 The KusionStack Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package fieldpath

import "strings"

// Path is an ordered sequence of field names addressing a location inside an
// object. It is rendered to JSON Pointer syntax (RFC 6901) only when the
// patch is serialized, so callers never concatenate pointer strings by hand.
type Path []string

func New(segments ...string) Path {
	return Path(segments)
}

// Child returns a new Path with segment appended. The receiver is not
// modified.
func (p Path) Child(segment string) Path {
	child := make(Path, 0, len(p)+1)
	child = append(child, p...)
	return append(child, segment)
}

// String renders the path in JSON Pointer syntax, escaping "~" and "/"
// occurring inside segments as "~0" and "~1".
func (p Path) String() string {
	var b strings.Builder
	for _, segment := range p {
		b.WriteByte('/')
		b.WriteString(escapeToken(segment))
	}
	return b.String()
}

// AppendElement renders the path of the append position of the array at p,
// i.e. the JSON Patch "-" index.
func (p Path) AppendElement() string {
	return p.String() + "/-"
}

func escapeToken(token string) string {
	token = strings.ReplaceAll(token, "~", "~0")
	return strings.ReplaceAll(token, "/", "~1")
}
