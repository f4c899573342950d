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

package policyconfig

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/klog/v2"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller"
	"sigs.k8s.io/controller-runtime/pkg/handler"
	"sigs.k8s.io/controller-runtime/pkg/predicate"
	"sigs.k8s.io/controller-runtime/pkg/reconcile"
	"sigs.k8s.io/controller-runtime/pkg/source"

	"kusionstack.io/tolerator/pkg/config"
	"kusionstack.io/tolerator/pkg/utils"
	"kusionstack.io/tolerator/pkg/utils/mixin"
)

const (
	controllerName = "policyconfig-controller"

	// PolicyDataKey is the ConfigMap data key holding the policy document.
	PolicyDataKey = "policy.yaml"
)

// PolicyConfigReconciler swaps the active webhook configuration whenever the
// policy ConfigMap changes. A document that fails to parse or validate is
// rejected and the previous configuration stays active.
type PolicyConfigReconciler struct {
	*mixin.ReconcilerMixin

	store     *config.Store
	configMap types.NamespacedName
}

func Add(mgr ctrl.Manager, store *config.Store, configMap types.NamespacedName) error {
	return AddToMgr(mgr, NewReconciler(mgr, store, configMap), configMap)
}

// NewReconciler returns a new reconcile.Reconciler
func NewReconciler(mgr ctrl.Manager, store *config.Store, configMap types.NamespacedName) reconcile.Reconciler {
	return &PolicyConfigReconciler{
		ReconcilerMixin: mixin.NewReconcilerMixin(controllerName, mgr),
		store:           store,
		configMap:       configMap,
	}
}

func AddToMgr(mgr ctrl.Manager, r reconcile.Reconciler, configMap types.NamespacedName) error {
	c, err := controller.New(controllerName, mgr, controller.Options{
		MaxConcurrentReconciles: 1,
		Reconciler:              r,
	})
	if err != nil {
		return err
	}

	return c.Watch(&source.Kind{Type: &corev1.ConfigMap{}}, &handler.EnqueueRequestForObject{},
		predicate.NewPredicateFuncs(func(obj client.Object) bool {
			return obj.GetNamespace() == configMap.Namespace && obj.GetName() == configMap.Name
		}))
}

func (r *PolicyConfigReconciler) Reconcile(ctx context.Context, req reconcile.Request) (reconcile.Result, error) {
	if req.NamespacedName != r.configMap {
		return reconcile.Result{}, nil
	}

	configMap := &corev1.ConfigMap{}
	if err := r.Client.Get(ctx, req.NamespacedName, configMap); err != nil {
		if errors.IsNotFound(err) {
			// keep serving with the configuration loaded at startup
			klog.Warningf("policy configmap %s deleted, keeping active config", req.NamespacedName)
			return reconcile.Result{}, nil
		}
		return reconcile.Result{}, err
	}

	document, ok := configMap.Data[PolicyDataKey]
	if !ok {
		r.Recorder.Eventf(configMap, corev1.EventTypeWarning, "PolicyRejected",
			"data key %q not found", PolicyDataKey)
		return reconcile.Result{}, nil
	}

	parsed, err := config.Parse([]byte(document))
	if err != nil {
		// not retryable, the document itself is broken; surface it as an
		// event and keep the previous configuration
		r.Recorder.Event(configMap, corev1.EventTypeWarning, "PolicyRejected", err.Error())
		klog.Warningf("policy configmap %s rejected, keeping active config: %v", utils.KeyFunc(configMap), err)
		return reconcile.Result{}, nil
	}

	r.store.Swap(parsed)
	r.Recorder.Event(configMap, corev1.EventTypeNormal, "PolicyReloaded",
		fmt.Sprintf("policy %q with %d tolerations, %d ignored namespaces",
			parsed.Policy.Name, len(parsed.Policy.Tolerations), len(parsed.IgnoredNamespaces)))
	klog.Infof("policy configmap %s reloaded, policy %q", utils.KeyFunc(configMap), parsed.Policy.Name)
	return reconcile.Result{}, nil
}
