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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDecision(t *testing.T) {
	inputs := []struct {
		name        string
		annotations map[string]string
		decision    Decision
	}{
		{
			name:     "no annotations",
			decision: DecisionRequired,
		},
		{
			name:        "empty inject value",
			annotations: map[string]string{AnnotationInject: ""},
			decision:    DecisionRequired,
		},
		{
			name:        "explicit opt-in",
			annotations: map[string]string{AnnotationInject: "yes"},
			decision:    DecisionRequired,
		},
		{
			name:        "unrecognized inject value fails open",
			annotations: map[string]string{AnnotationInject: "nope"},
			decision:    DecisionRequired,
		},
		{
			name:        "opt out n",
			annotations: map[string]string{AnnotationInject: "n"},
			decision:    DecisionSuppressed,
		},
		{
			name:        "opt out NO",
			annotations: map[string]string{AnnotationInject: "NO"},
			decision:    DecisionSuppressed,
		},
		{
			name:        "opt out False",
			annotations: map[string]string{AnnotationInject: "False"},
			decision:    DecisionSuppressed,
		},
		{
			name:        "opt out off",
			annotations: map[string]string{AnnotationInject: "off"},
			decision:    DecisionSuppressed,
		},
		{
			name:        "already injected",
			annotations: map[string]string{AnnotationStatus: "injected"},
			decision:    DecisionInjected,
		},
		{
			name:        "already injected uppercase",
			annotations: map[string]string{AnnotationStatus: "INJECTED"},
			decision:    DecisionInjected,
		},
		{
			name:        "other status value",
			annotations: map[string]string{AnnotationStatus: "pending"},
			decision:    DecisionRequired,
		},
		{
			name: "injected marker wins over opt-out",
			annotations: map[string]string{
				AnnotationStatus: "Injected",
				AnnotationInject: "no",
			},
			decision: DecisionInjected,
		},
	}

	for _, in := range inputs {
		t.Run(in.name, func(t *testing.T) {
			assert.Equal(t, in.decision, ParseDecision(in.annotations))
		})
	}
}

func TestEligible(t *testing.T) {
	exclusion := []string{"infra", "kube-system", "kube-public", "kube-node-lease"}

	assert.True(t, Eligible("default", nil, exclusion))
	assert.False(t, Eligible("default", map[string]string{AnnotationInject: "no"}, exclusion))
	assert.False(t, Eligible("default", map[string]string{AnnotationStatus: "injected"}, exclusion))

	// exclusion beats an explicit opt-in
	assert.False(t, Eligible("infra", map[string]string{AnnotationInject: "yes"}, exclusion))

	// exact match only, never prefix
	assert.True(t, Eligible("infra-edge", nil, exclusion))

	for _, namespace := range exclusion {
		assert.False(t, Eligible(namespace, nil, exclusion), "namespace %s", namespace)
	}
}
