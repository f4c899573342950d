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

package utils

import (
	"encoding/json"
	"fmt"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/webhook/admission"
)

// DumpJSON returns the JSON encoding
func DumpJSON(o interface{}) string {
	j, _ := json.Marshal(o)
	return string(j)
}

func KeyFunc(obj metav1.Object) string {
	return Key(obj.GetNamespace(), obj.GetName())
}

func Key(namespace, name string) string {
	return fmt.Sprintf("%s/%s", namespace, name)
}

// AdmissionRequestObjectKeyString returns the namespace/name key of the
// object an admission request targets, for logging.
func AdmissionRequestObjectKeyString(req admission.Request) string {
	return Key(req.Namespace, req.Name)
}
