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
	"sigs.k8s.io/controller-runtime/pkg/webhook/admission"

	"kusionstack.io/tolerator/pkg/config"
	webhookadmission "kusionstack.io/tolerator/pkg/webhook/admission"
	"kusionstack.io/tolerator/pkg/webhook/server/generic/pod"
	"kusionstack.io/tolerator/pkg/webhook/server/generic/pod/tolerationinject"
)

var (
	// HandlerMap contains admission webhook handlers
	HandlerMap = map[string]admission.Handler{
		"mutating-generic": NewGenericMutatingHandler(),
	}
)

var MutatingTypeHandlerMap = map[string]webhookadmission.DispatchHandler{}

// SetupWebhooks wires the kind-specific handlers and their mutation plugins.
// Called once during manager setup, before the webhook server starts.
func SetupWebhooks(store *config.Store) {
	pod.RegisterAdmissionWebhook(tolerationinject.New(store))

	podMutatingHandler := pod.NewMutatingHandler()
	MutatingTypeHandlerMap["Pod"] = podMutatingHandler
}
