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

package admission

import (
	"context"

	"gomodules.xyz/jsonpatch/v2"
	corev1 "k8s.io/api/core/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/webhook/admission"
)

// DispatchHandler is a kind-specific admission handler the generic handlers
// dispatch to.
type DispatchHandler interface {
	Handle(context.Context, admission.Request) admission.Response
}

// PodMutator computes the patch operations a mutation plugin wants applied
// to a pod. Returning no operations means the plugin has nothing to do for
// this pod; it is not an error.
type PodMutator interface {
	Name() string
	Mutating(ctx context.Context, c client.Client, pod *corev1.Pod, req admission.Request) ([]jsonpatch.Operation, error)
}
