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

package controllers

import (
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/manager"

	"kusionstack.io/tolerator/pkg/config"
)

// AddToManagerFuncs is a list of functions to add all Controllers to the Manager
var AddToManagerFuncs []func(manager.Manager, *config.Store, types.NamespacedName) error

// AddToManager adds all Controllers to the Manager. policyConfigMap may be
// empty, in which case controllers depending on it are not added.
func AddToManager(m manager.Manager, store *config.Store, policyConfigMap types.NamespacedName) error {
	for _, f := range AddToManagerFuncs {
		if err := f(m, store, policyConfigMap); err != nil {
			return err
		}
	}
	return nil
}
