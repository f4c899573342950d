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

package admission

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"gomodules.xyz/jsonpatch/v2"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/klog/v2"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
	"sigs.k8s.io/controller-runtime/pkg/webhook/admission"
)

const (
	TolerationInjectPluginName = "TolerationInjectionWebhook"
)

var (
	DefaultOnPlugins = map[string]bool{
		TolerationInjectPluginName: true,
	}

	mutateErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_mutate_errors",
		Help: "Total number of mutate errors per plugin",
	}, []string{"plugin"})

	mutateTime = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name: "webhook_mutate_seconds",
		Help: "Length of time per mutate per plugin",
	}, []string{"plugin"})

	mutatePatchOps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_mutate_patch_operations_total",
		Help: "Total number of emitted patch operations per plugin",
	}, []string{"plugin"})

	mutateNoops = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_mutate_noops_total",
		Help: "Total number of mutate calls that produced no patch per plugin",
	}, []string{"plugin"})
)

func init() {
	metrics.Registry.MustRegister(
		mutateErrors,
		mutateTime,
		mutatePatchOps,
		mutateNoops,
	)
}

// Plugin wraps a PodMutator with the enable switch and the webhook metrics.
type Plugin struct {
	mutator PodMutator
}

func NewPlugin(mutator PodMutator) *Plugin {
	return &Plugin{mutator: mutator}
}

func (p *Plugin) Name() string {
	return p.mutator.Name()
}

func (p *Plugin) Admit(ctx context.Context, req admission.Request, c client.Client, pod *corev1.Pod) ([]jsonpatch.Operation, error) {
	if !DefaultOnPlugins[p.Name()] {
		return nil, nil
	}

	startTime := time.Now()
	operations, err := p.mutator.Mutating(ctx, c, pod, req)
	mutateTime.WithLabelValues(p.Name()).Observe(time.Since(startTime).Seconds())

	if err != nil {
		mutateErrors.WithLabelValues(p.Name()).Inc()
		err = fmt.Errorf("plugin %s mutate for %s/%s failed: %v",
			p.Name(), req.AdmissionRequest.Namespace, req.AdmissionRequest.Name, err)
		klog.Warningf("%v", err)
		return nil, err
	}

	if len(operations) == 0 {
		mutateNoops.WithLabelValues(p.Name()).Inc()
	} else {
		mutatePatchOps.WithLabelValues(p.Name()).Add(float64(len(operations)))
	}
	return operations, nil
}
