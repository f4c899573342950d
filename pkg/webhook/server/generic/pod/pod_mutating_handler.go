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

package pod

import (
	"context"
	"net/http"

	"gomodules.xyz/jsonpatch/v2"
	admissionv1 "k8s.io/api/admission/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/klog/v2"
	"sigs.k8s.io/controller-runtime/pkg/webhook/admission"

	"kusionstack.io/tolerator/pkg/utils/mixin"
)

type MutatingHandler struct {
	*mixin.WebhookHandlerMixin
}

func NewMutatingHandler() *MutatingHandler {
	return &MutatingHandler{
		WebhookHandlerMixin: mixin.NewWebhookHandlerMixin(),
	}
}

// Handle decodes the pod, runs every registered mutation plugin and answers
// with the aggregated patch. Structural problems in the request are rejected
// before any plugin runs; the response either carries the complete patch or
// none at all.
func (h *MutatingHandler) Handle(ctx context.Context, req admission.Request) (resp admission.Response) {
	if req.Kind.Kind != "Pod" {
		return admission.Patched("Invalid kind")
	}

	if req.Operation != admissionv1.Create && req.Operation != admissionv1.Update {
		return admission.Patched("Not Create or Update, but " + string(req.Operation))
	}

	pod := &corev1.Pod{}
	if err := h.Decoder.Decode(req, pod); err != nil {
		klog.Errorf("decode request failed, %v", err)
		return admission.Errored(http.StatusBadRequest, err)
	}

	var operations []jsonpatch.Operation
	for _, plugin := range plugins {
		pluginOperations, err := plugin.Admit(ctx, req, h.Client, pod)
		if err != nil {
			return admission.Errored(http.StatusInternalServerError, err)
		}
		operations = append(operations, pluginOperations...)
	}

	if len(operations) == 0 {
		return admission.Allowed("no mutation required")
	}
	return admission.Patched("mutated by policy", operations...)
}
