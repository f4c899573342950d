/**
 * Copyright 2023 The KusionStack Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package mixin

import (
	"github.com/go-logr/logr"
	"k8s.io/client-go/tools/record"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/manager"
	"sigs.k8s.io/controller-runtime/pkg/runtime/inject"
	"sigs.k8s.io/controller-runtime/pkg/webhook/admission"
)

var _ inject.Client = &WebhookHandlerMixin{}
var _ inject.Logger = &WebhookHandlerMixin{}
var _ admission.DecoderInjector = &WebhookHandlerMixin{}

// WebhookHandlerMixin carries the dependencies every admission handler
// needs. Fields are injected by the webhook server on registration.
type WebhookHandlerMixin struct {
	Client  client.Client
	Decoder *admission.Decoder
	Logger  logr.Logger
}

func NewWebhookHandlerMixin() *WebhookHandlerMixin {
	return &WebhookHandlerMixin{}
}

// InjectDecoder implements admission.DecoderInjector.
func (m *WebhookHandlerMixin) InjectDecoder(d *admission.Decoder) error {
	m.Decoder = d
	return nil
}

// InjectLogger implements inject.Logger.
func (m *WebhookHandlerMixin) InjectLogger(l logr.Logger) error {
	m.Logger = l
	return nil
}

// InjectClient implements inject.Client.
func (m *WebhookHandlerMixin) InjectClient(c client.Client) error {
	m.Client = c
	return nil
}

// ReconcilerMixin carries the dependencies of a reconciler, resolved from
// the manager at construction time.
type ReconcilerMixin struct {
	name string

	Client   client.Client
	Logger   logr.Logger
	Recorder record.EventRecorder
}

func NewReconcilerMixin(controllerName string, mgr manager.Manager) *ReconcilerMixin {
	return &ReconcilerMixin{
		name:     controllerName,
		Client:   mgr.GetClient(),
		Logger:   mgr.GetLogger().WithName(controllerName),
		Recorder: mgr.GetEventRecorderFor(controllerName),
	}
}

func (m *ReconcilerMixin) GetControllerName() string {
	return m.name
}
