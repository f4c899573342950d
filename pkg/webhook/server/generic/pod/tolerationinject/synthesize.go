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

package tolerationinject

import (
	"gomodules.xyz/jsonpatch/v2"
	corev1 "k8s.io/api/core/v1"

	"kusionstack.io/tolerator/pkg/utils/fieldpath"
)

// Synthesize computes the patch operations that bring the pod's toleration
// list up to the desired set. The result is strictly additive: tolerations
// already on the pod are never removed, reordered or rewritten. When the pod
// has no tolerations at all, a single operation adds the whole desired list
// at base; otherwise one append operation is emitted per missing entry, in
// desired order. An empty desired list yields no operations.
func Synthesize(current, desired []corev1.Toleration, base fieldpath.Path) []jsonpatch.Operation {
	if len(desired) == 0 {
		return nil
	}

	if len(current) == 0 {
		return []jsonpatch.Operation{
			jsonpatch.NewOperation("add", base.String(), desired),
		}
	}

	var operations []jsonpatch.Operation
	for i := range desired {
		if !hasToleration(current, &desired[i]) {
			operations = append(operations, jsonpatch.NewOperation("add", base.AppendElement(), desired[i]))
		}
	}
	return operations
}

func hasToleration(list []corev1.Toleration, toleration *corev1.Toleration) bool {
	for i := range list {
		if sameToleration(&list[i], toleration) {
			return true
		}
	}
	return false
}

// sameToleration compares toleration identity. TolerationSeconds is excluded
// on purpose: a pod carrying the right toleration with a tuned duration keeps
// it.
func sameToleration(a, b *corev1.Toleration) bool {
	return a.Key == b.Key &&
		a.Operator == b.Operator &&
		a.Value == b.Value &&
		a.Effect == b.Effect
}

var annotationsPath = fieldpath.New("metadata", "annotations")

// markInjected returns the operation recording AnnotationStatus on the pod.
// A pod without annotations needs the map created first, so the whole map is
// added in one operation.
func markInjected(annotations map[string]string) []jsonpatch.Operation {
	if len(annotations) == 0 {
		return []jsonpatch.Operation{
			jsonpatch.NewOperation("add", annotationsPath.String(),
				map[string]string{AnnotationStatus: StatusInjected}),
		}
	}
	return []jsonpatch.Operation{
		jsonpatch.NewOperation("add", annotationsPath.Child(AnnotationStatus).String(),
			StatusInjected),
	}
}
