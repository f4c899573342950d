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

package webhook

import (
	"sigs.k8s.io/controller-runtime/pkg/manager"
	ctrlwebhook "sigs.k8s.io/controller-runtime/pkg/webhook"

	"kusionstack.io/tolerator/pkg/config"
	"kusionstack.io/tolerator/pkg/webhook/server/generic"
)

func init() {
	AddToManagerFuncs = append(AddToManagerFuncs, AddGenericToManager)
}

func AddGenericToManager(mgr manager.Manager, store *config.Store) error {
	generic.SetupWebhooks(store)

	server := mgr.GetWebhookServer()
	for name, handler := range generic.HandlerMap {
		server.Register("/"+name, &ctrlwebhook.Admission{Handler: handler})
	}
	return nil
}
