// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0) (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.gnu.org/licenses/agpl-3.0.en.html
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package builtin

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// generateSchema derives a JSON Schema parameter map from a Go struct's
// json/jsonschema tags, adapted from the teacher's
// pkg/tool/functiontool/schema.go. Built-in tools with a handful of
// scalar/array/object parameters still declare their schema as a
// literal map (clearer to read at the call site); this helper is used
// where the parameter shape is itself a reusable struct.
func generateSchema[T any]() (map[string]any, error) {
	reflector := &jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		DoNotReference:             true,
	}

	schema := reflector.Reflect(new(T))

	schemaMap, err := schemaToMap(schema)
	if err != nil {
		return nil, fmt.Errorf("builtin: generate schema: %w", err)
	}

	if schemaMap["type"] != "object" {
		return schemaMap, nil
	}

	out := map[string]any{
		"type":       "object",
		"properties": schemaMap["properties"],
	}
	if required := schemaMap["required"]; required != nil {
		out["required"] = required
	}
	if addProps, ok := schemaMap["additionalProperties"]; ok {
		out["additionalProperties"] = addProps
	}
	return out, nil
}

func schemaToMap(schema *jsonschema.Schema) (map[string]any, error) {
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}

	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	delete(out, "$schema")
	delete(out, "$id")
	return out, nil
}
