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

import "strings"

const (
	// AnnotationInject lets a pod opt out of toleration injection. Only the
	// negative tokens suppress injection; any other value, including an
	// unrecognized one, leaves the pod eligible.
	AnnotationInject = "tolerations.kusionstack.io/inject"

	// AnnotationStatus records that injection already happened. The webhook
	// sets it together with the injected tolerations.
	AnnotationStatus = "tolerations.kusionstack.io/status"

	StatusInjected = "injected"
)

// negativeTokens are the opt-out values of AnnotationInject, matched
// case-insensitively.
var negativeTokens = map[string]struct{}{
	"n":     {},
	"no":    {},
	"false": {},
	"off":   {},
}

// Decision is the annotation-level outcome for a pod. Namespace exclusion is
// decided separately in Eligible.
type Decision int

const (
	// DecisionRequired means the pod should be mutated.
	DecisionRequired Decision = iota
	// DecisionInjected means a previous admission already mutated the pod.
	DecisionInjected
	// DecisionSuppressed means the pod opted out of injection.
	DecisionSuppressed
)

func (d Decision) String() string {
	switch d {
	case DecisionInjected:
		return "injected"
	case DecisionSuppressed:
		return "suppressed"
	default:
		return "required"
	}
}

// ParseDecision evaluates the pod annotations. The injected marker wins over
// the opt-out annotation so repeated admissions of an already-mutated pod
// stay no-ops regardless of what else the pod carries.
func ParseDecision(annotations map[string]string) Decision {
	if strings.EqualFold(annotations[AnnotationStatus], StatusInjected) {
		return DecisionInjected
	}
	if _, ok := negativeTokens[strings.ToLower(annotations[AnnotationInject])]; ok {
		return DecisionSuppressed
	}
	return DecisionRequired
}

// Eligible reports whether a pod in the given namespace should receive
// injected tolerations. Namespaces on the exclusion list are compared by
// exact match and beat any annotation, including an explicit opt-in.
func Eligible(namespace string, annotations map[string]string, exclusionList []string) bool {
	for _, excluded := range exclusionList {
		if namespace == excluded {
			return false
		}
	}
	return ParseDecision(annotations) == DecisionRequired
}
