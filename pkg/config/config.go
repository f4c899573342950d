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

package config

import (
	"fmt"

	"github.com/pkg/errors"
	corev1 "k8s.io/api/core/v1"
)

// Namespaces that are never mutated, no matter what the configured exclusion
// list says.
var systemNamespaces = []string{"kube-system", "kube-public", "kube-node-lease"}

// MutationPolicy is the set of tolerations the webhook enforces on eligible
// pods. It is loaded once at startup and treated as immutable during a single
// request's evaluation.
type MutationPolicy struct {
	Name        string              `json:"name"`
	Tolerations []corev1.Toleration `json:"tolerations"`
}

// Config is the full webhook configuration document.
type Config struct {
	Policy MutationPolicy `json:"policy"`

	// IgnoredNamespaces are exempted from mutation regardless of pod
	// annotations.
	IgnoredNamespaces []string `json:"ignoredNamespaces,omitempty"`
}

// ExclusionList returns the configured ignored namespaces merged with the
// always-excluded system namespaces, configured entries first, deduplicated.
// The order is deterministic so eligibility decisions are reproducible.
func (c *Config) ExclusionList() []string {
	seen := make(map[string]struct{}, len(c.IgnoredNamespaces)+len(systemNamespaces))
	list := make([]string, 0, len(c.IgnoredNamespaces)+len(systemNamespaces))
	for _, ns := range c.IgnoredNamespaces {
		if _, ok := seen[ns]; ok {
			continue
		}
		seen[ns] = struct{}{}
		list = append(list, ns)
	}
	for _, ns := range systemNamespaces {
		if _, ok := seen[ns]; ok {
			continue
		}
		seen[ns] = struct{}{}
		list = append(list, ns)
	}
	return list
}

// Validate rejects documents the synthesizer could not act on. An empty
// toleration list is valid and means no enforced values.
func (c *Config) Validate() error {
	if c.Policy.Name == "" {
		return errors.New("policy.name is required")
	}
	for i := range c.Policy.Tolerations {
		if err := validateToleration(&c.Policy.Tolerations[i]); err != nil {
			return errors.Wrapf(err, "policy.tolerations[%d]", i)
		}
	}
	for i, ns := range c.IgnoredNamespaces {
		if ns == "" {
			return errors.Errorf("ignoredNamespaces[%d] must not be empty", i)
		}
	}
	return nil
}

func validateToleration(toleration *corev1.Toleration) error {
	switch toleration.Operator {
	case "", corev1.TolerationOpEqual:
		if toleration.Key == "" {
			return fmt.Errorf("key is required when operator is %q", corev1.TolerationOpEqual)
		}
	case corev1.TolerationOpExists:
		if toleration.Value != "" {
			return fmt.Errorf("value must be empty when operator is %q", corev1.TolerationOpExists)
		}
	default:
		return fmt.Errorf("unsupported operator %q", toleration.Operator)
	}

	switch toleration.Effect {
	case "", corev1.TaintEffectNoSchedule, corev1.TaintEffectPreferNoSchedule, corev1.TaintEffectNoExecute:
	default:
		return fmt.Errorf("unsupported effect %q", toleration.Effect)
	}

	if toleration.TolerationSeconds != nil && toleration.Effect != corev1.TaintEffectNoExecute {
		return fmt.Errorf("tolerationSeconds requires effect %q", corev1.TaintEffectNoExecute)
	}
	return nil
}
