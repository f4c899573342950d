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

	"gomodules.xyz/jsonpatch/v2"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/klog/v2"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/webhook/admission"

	"kusionstack.io/tolerator/pkg/config"
	"kusionstack.io/tolerator/pkg/utils"
	"kusionstack.io/tolerator/pkg/utils/fieldpath"
)

var tolerationsPath = fieldpath.New("spec", "tolerations")

// TolerationInjector injects the policy tolerations into eligible pods.
type TolerationInjector struct {
	store *config.Store
}

func New(store *config.Store) *TolerationInjector {
	return &TolerationInjector{store: store}
}

func (w *TolerationInjector) Name() string {
	return "TolerationInjectionWebhook"
}

// Mutating evaluates the pod against one configuration snapshot and returns
// the toleration patch plus the injected marker. The snapshot is read once so
// a concurrent policy swap cannot mix two policies in one response.
func (w *TolerationInjector) Mutating(ctx context.Context, c client.Client, pod *corev1.Pod, req admission.Request) ([]jsonpatch.Operation, error) {
	cfg := w.store.Get()

	namespace := req.Namespace
	if namespace == "" {
		namespace = pod.Namespace
	}

	if !Eligible(namespace, pod.Annotations, cfg.ExclusionList()) {
		klog.V(5).Infof("skip toleration injection for pod %s, decision %s",
			utils.AdmissionRequestObjectKeyString(req), ParseDecision(pod.Annotations))
		return nil, nil
	}

	operations := Synthesize(pod.Spec.Tolerations, cfg.Policy.Tolerations, tolerationsPath)
	if len(operations) == 0 {
		return nil, nil
	}

	operations = append(operations, markInjected(pod.Annotations)...)
	klog.V(5).Infof("inject tolerations for pod %s, patch %s",
		utils.AdmissionRequestObjectKeyString(req), utils.DumpJSON(operations))
	return operations, nil
}
