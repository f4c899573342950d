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

package generic

import (
	"context"

	"github.com/go-logr/logr"
	"sigs.k8s.io/controller-runtime/pkg/runtime/inject"
	"sigs.k8s.io/controller-runtime/pkg/webhook/admission"

	commonutils "kusionstack.io/tolerator/pkg/utils"
	"kusionstack.io/tolerator/pkg/utils/mixin"
)

var (
	_ inject.Injector           = &MutatingHandler{}
	_ inject.Client             = &MutatingHandler{}
	_ inject.Logger             = &MutatingHandler{}
	_ admission.DecoderInjector = &MutatingHandler{}
)

// MutatingHandler fans admission requests out by kind to the handlers in
// MutatingTypeHandlerMap. Dry-run requests and kinds without a registered
// handler are admitted unchanged.
type MutatingHandler struct {
	*mixin.WebhookHandlerMixin

	// setFields injects manager dependencies into the registered handlers
	setFields inject.Func
}

func NewGenericMutatingHandler() *MutatingHandler {
	return &MutatingHandler{
		WebhookHandlerMixin: mixin.NewWebhookHandlerMixin(),
	}
}

func (h *MutatingHandler) Handle(ctx context.Context, req admission.Request) admission.Response {
	if req.DryRun != nil && *req.DryRun {
		return admission.Allowed("dry run")
	}

	handler, registered := MutatingTypeHandlerMap[req.Kind.Kind]
	if !registered {
		return admission.Patched("no mutation for " + req.Kind.Kind)
	}

	h.Logger.V(5).Info("dispatch mutating request",
		"kind", req.Kind.Kind,
		"key", commonutils.AdmissionRequestObjectKeyString(req),
		"op", req.Operation,
	)
	return handler.Handle(ctx, req)
}

// InjectFunc forwards the manager's dependency injection to every registered
// handler, so they get their client and decoder before serving.
func (h *MutatingHandler) InjectFunc(f inject.Func) error {
	h.setFields = f

	for kind := range MutatingTypeHandlerMap {
		if err := h.setFields(MutatingTypeHandlerMap[kind]); err != nil {
			return err
		}
	}
	return nil
}

func (h *MutatingHandler) InjectLogger(l logr.Logger) error {
	_ = h.WebhookHandlerMixin.InjectLogger(l)

	for kind, handler := range MutatingTypeHandlerMap {
		if _, err := inject.LoggerInto(l.WithValues("kind", kind), handler); err != nil {
			return err
		}
	}
	return nil
}
