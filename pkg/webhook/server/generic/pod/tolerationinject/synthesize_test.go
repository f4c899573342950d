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
	"context"
	"encoding/json"
	"testing"

	evanjsonpatch "github.com/evanphx/json-patch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gomodules.xyz/jsonpatch/v2"
	admissionv1 "k8s.io/api/admission/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/webhook/admission"

	"kusionstack.io/tolerator/pkg/config"
	"kusionstack.io/tolerator/pkg/utils/fieldpath"
)

var basePath = fieldpath.New("spec", "tolerations")

func seconds(v int64) *int64 {
	return &v
}

func notReady(tolerationSeconds int64) corev1.Toleration {
	return corev1.Toleration{
		Key:               "node.kubernetes.io/not-ready",
		Operator:          corev1.TolerationOpExists,
		Effect:            corev1.TaintEffectNoExecute,
		TolerationSeconds: seconds(tolerationSeconds),
	}
}

func unreachable(tolerationSeconds int64) corev1.Toleration {
	return corev1.Toleration{
		Key:               "node.kubernetes.io/unreachable",
		Operator:          corev1.TolerationOpExists,
		Effect:            corev1.TaintEffectNoExecute,
		TolerationSeconds: seconds(tolerationSeconds),
	}
}

func podRequest(namespace string) admission.Request {
	return admission.Request{
		AdmissionRequest: admissionv1.AdmissionRequest{
			Namespace: namespace,
			Name:      "web-0",
			Operation: admissionv1.Create,
			Kind:      metav1.GroupVersionKind{Version: "v1", Kind: "Pod"},
		},
	}
}

func newStore(tolerations []corev1.Toleration, ignored ...string) *config.Store {
	return config.NewStore(&config.Config{
		Policy: config.MutationPolicy{
			Name:        "node-health",
			Tolerations: tolerations,
		},
		IgnoredNamespaces: ignored,
	})
}

// applyOperations runs the synthesized operations through a real JSON Patch
// apply, the way the API server would.
func applyOperations(t *testing.T, pod *corev1.Pod, operations []jsonpatch.Operation) *corev1.Pod {
	t.Helper()

	raw, err := json.Marshal(pod)
	require.NoError(t, err)
	patchJSON, err := json.Marshal(operations)
	require.NoError(t, err)
	patch, err := evanjsonpatch.DecodePatch(patchJSON)
	require.NoError(t, err)
	patched, err := patch.Apply(raw)
	require.NoError(t, err)

	result := &corev1.Pod{}
	require.NoError(t, json.Unmarshal(patched, result))
	return result
}

func TestSynthesizeEmptyCurrent(t *testing.T) {
	desired := []corev1.Toleration{notReady(300), unreachable(300)}

	operations := Synthesize(nil, desired, basePath)
	require.Len(t, operations, 1)
	assert.Equal(t, "add", operations[0].Operation)
	assert.Equal(t, "/spec/tolerations", operations[0].Path)
	assert.Equal(t, desired, operations[0].Value)
}

func TestSynthesizeAppendsOnlyMissing(t *testing.T) {
	current := []corev1.Toleration{notReady(300)}
	desired := []corev1.Toleration{notReady(15), unreachable(15)}

	operations := Synthesize(current, desired, basePath)
	require.Len(t, operations, 1)
	assert.Equal(t, "add", operations[0].Operation)
	assert.Equal(t, "/spec/tolerations/-", operations[0].Path)
	assert.Equal(t, unreachable(15), operations[0].Value)
}

func TestSynthesizeNoOp(t *testing.T) {
	assert.Empty(t, Synthesize(nil, nil, basePath))
	assert.Empty(t, Synthesize([]corev1.Toleration{notReady(300)}, nil, basePath))
	assert.Empty(t, Synthesize(
		[]corev1.Toleration{notReady(300), unreachable(300)},
		[]corev1.Toleration{notReady(300), unreachable(300)},
		basePath,
	))
}

func TestSynthesizePreservesDesiredOrder(t *testing.T) {
	current := []corev1.Toleration{
		{Key: "dedicated", Operator: corev1.TolerationOpEqual, Value: "db", Effect: corev1.TaintEffectNoSchedule},
	}
	desired := []corev1.Toleration{
		notReady(300),
		unreachable(300),
		{Key: "spot", Operator: corev1.TolerationOpExists, Effect: corev1.TaintEffectNoSchedule},
	}

	operations := Synthesize(current, desired, basePath)
	require.Len(t, operations, 3)
	for i, op := range operations {
		assert.Equal(t, "add", op.Operation)
		assert.Equal(t, "/spec/tolerations/-", op.Path)
		assert.Equal(t, desired[i], op.Value)
	}
}

func TestTolerationIdentity(t *testing.T) {
	base := corev1.Toleration{
		Key:      "dedicated",
		Operator: corev1.TolerationOpEqual,
		Value:    "db",
		Effect:   corev1.TaintEffectNoSchedule,
	}

	differentValue := base
	differentValue.Value = "cache"
	assert.Len(t, Synthesize([]corev1.Toleration{base}, []corev1.Toleration{differentValue}, basePath), 1)

	differentEffect := base
	differentEffect.Effect = corev1.TaintEffectNoExecute
	assert.Len(t, Synthesize([]corev1.Toleration{base}, []corev1.Toleration{differentEffect}, basePath), 1)

	// a different duration is the same toleration and is left untouched
	assert.Empty(t, Synthesize([]corev1.Toleration{notReady(15)}, []corev1.Toleration{notReady(300)}, basePath))
}

func TestMutatingAppliedPatchIsIdempotent(t *testing.T) {
	store := newStore([]corev1.Toleration{notReady(300), unreachable(300)})
	injector := New(store)

	pod := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Namespace:   "default",
			Name:        "web-0",
			Annotations: map[string]string{"team": "runtime"},
		},
		Spec: corev1.PodSpec{
			Tolerations: []corev1.Toleration{
				{Key: "dedicated", Operator: corev1.TolerationOpEqual, Value: "db", Effect: corev1.TaintEffectNoSchedule},
			},
		},
	}

	operations, err := injector.Mutating(context.Background(), nil, pod, podRequest("default"))
	require.NoError(t, err)
	require.NotEmpty(t, operations)

	patched := applyOperations(t, pod, operations)

	// existing tolerations and annotations survive
	assert.Contains(t, patched.Spec.Tolerations, pod.Spec.Tolerations[0])
	assert.Equal(t, "runtime", patched.Annotations["team"])
	assert.Equal(t, StatusInjected, patched.Annotations[AnnotationStatus])
	assert.Contains(t, patched.Spec.Tolerations, notReady(300))
	assert.Contains(t, patched.Spec.Tolerations, unreachable(300))

	// a second admission of the patched pod is a no-op
	operations, err = injector.Mutating(context.Background(), nil, patched, podRequest("default"))
	require.NoError(t, err)
	assert.Empty(t, operations)

	// even without the marker the structural comparison converges
	assert.Empty(t, Synthesize(patched.Spec.Tolerations, store.Get().Policy.Tolerations, basePath))
}

func TestMutatingCreatesAnnotationsMap(t *testing.T) {
	store := newStore([]corev1.Toleration{notReady(300)})
	injector := New(store)

	pod := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Namespace: "default", Name: "web-0"},
	}

	operations, err := injector.Mutating(context.Background(), nil, pod, podRequest("default"))
	require.NoError(t, err)
	require.Len(t, operations, 2)
	assert.Equal(t, "/metadata/annotations", operations[1].Path)

	patched := applyOperations(t, pod, operations)
	assert.Equal(t, StatusInjected, patched.Annotations[AnnotationStatus])
}

func TestMutatingSkips(t *testing.T) {
	inputs := []struct {
		name        string
		namespace   string
		ignored     []string
		annotations map[string]string
	}{
		{
			name:      "configured exclusion",
			namespace: "infra",
			ignored:   []string{"infra"},
		},
		{
			name:      "system namespace",
			namespace: "kube-system",
		},
		{
			name:        "opted out",
			namespace:   "default",
			annotations: map[string]string{AnnotationInject: "false"},
		},
		{
			name:        "already injected",
			namespace:   "default",
			annotations: map[string]string{AnnotationStatus: "injected"},
		},
	}

	for _, in := range inputs {
		t.Run(in.name, func(t *testing.T) {
			store := newStore([]corev1.Toleration{notReady(300)}, in.ignored...)
			injector := New(store)

			pod := &corev1.Pod{
				ObjectMeta: metav1.ObjectMeta{
					Namespace:   in.namespace,
					Name:        "web-0",
					Annotations: in.annotations,
				},
			}
			operations, err := injector.Mutating(context.Background(), nil, pod, podRequest(in.namespace))
			require.NoError(t, err)
			assert.Empty(t, operations)
		})
	}
}
