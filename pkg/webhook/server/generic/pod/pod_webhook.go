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
	webhookadmission "kusionstack.io/tolerator/pkg/webhook/admission"
)

// plugins are the registered pod mutation plugins, invoked in registration
// order on every eligible pod admission request.
var plugins []*webhookadmission.Plugin

// RegisterAdmissionWebhook adds a pod mutation plugin to the dispatch list.
// Registration happens during webhook setup, before the server starts
// serving; it is not safe to call concurrently with request handling.
func RegisterAdmissionWebhook(mutator webhookadmission.PodMutator) {
	plugins = append(plugins, webhookadmission.NewPlugin(mutator))
}
