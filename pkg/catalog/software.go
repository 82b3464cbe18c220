package catalog

func builtinSoftwareComponents() map[string]SoftwareComponent {
	components := []SoftwareComponent{
		{
			Key: "nvidia-ai-enterprise", Name: "NVIDIA AI Enterprise", Vendor: "nvidia",
			Category: "ai-platform", Licensing: "subscription",
			CostPerGPUYear: 4500, PricingUnit: PricingPerGPU, SetupCost: 25000,
			Expertise: "intermediate",
			SupportTiers: map[SupportTier]float64{
				SupportBusiness:   4500,
				SupportEnterprise: 5500,
			},
		},
		{
			Key: "base-command-manager", Name: "NVIDIA Base Command Manager", Vendor: "nvidia",
			Category: "cluster-management", Licensing: "subscription",
			CostPerGPUYear: 250, PricingUnit: PricingPerNode, GPUsPerNode: 4, SetupCost: 10000,
			Expertise: "intermediate",
			SupportTiers: map[SupportTier]float64{
				SupportBusiness:   250,
				SupportEnterprise: 400,
			},
		},
		{
			Key: "slurm", Name: "Slurm Workload Manager", Vendor: "schedmd",
			Category: "scheduler", Licensing: "open-source",
			CostPerGPUYear: 0, PricingUnit: PricingPerNode, GPUsPerNode: 4, SetupCost: 5000,
			Expertise: "advanced",
			SupportTiers: map[SupportTier]float64{
				SupportCommunity:  0,
				SupportBusiness:   60,
				SupportEnterprise: 120,
			},
		},
		{
			Key: "kubernetes", Name: "Kubernetes", Vendor: "cncf",
			Category: "orchestration", Licensing: "open-source",
			CostPerGPUYear: 0, PricingUnit: PricingPerNode, GPUsPerNode: 4, SetupCost: 15000,
			Expertise: "advanced",
			SupportTiers: map[SupportTier]float64{
				SupportCommunity:  0,
				SupportBusiness:   75,
				SupportEnterprise: 150,
			},
		},
		{
			Key: "run-ai", Name: "Run:ai", Vendor: "nvidia",
			Category: "scheduler", Licensing: "subscription",
			CostPerGPUYear: 1200, PricingUnit: PricingPerGPU, SetupCost: 20000,
			Dependencies: []string{"kubernetes"},
			Expertise:    "intermediate",
		},
		{
			Key: "dcgm", Name: "NVIDIA DCGM", Vendor: "nvidia",
			Category: "monitoring", Licensing: "free",
			PricingUnit: PricingPerGPU,
			Expertise:   "basic",
		},
		{
			Key: "prometheus-grafana", Name: "Prometheus + Grafana", Vendor: "cncf",
			Category: "monitoring", Licensing: "open-source",
			PricingUnit: PricingPerGPU, SetupCost: 3000,
			Expertise: "intermediate",
		},
		{
			Key: "pytorch", Name: "PyTorch", Vendor: "linux-foundation",
			Category: "framework", Licensing: "open-source",
			PricingUnit: PricingPerGPU,
			Expertise:   "basic",
		},
		{
			Key: "mlflow", Name: "MLflow", Vendor: "linux-foundation",
			Category: "mlops", Licensing: "open-source",
			PricingUnit: PricingPerGPU, SetupCost: 5000,
			Dependencies: []string{"kubernetes"},
			Expertise:    "intermediate",
		},
		{
			Key: "datadog-gpu", Name: "Datadog GPU Monitoring", Vendor: "datadog",
			Category: "monitoring", Licensing: "subscription",
			CostPerGPUYear: 180, PricingUnit: PricingPerNode, GPUsPerNode: 8, SetupCost: 2000,
			Expertise: "basic",
		},
		{
			Key: "red-hat-openshift", Name: "Red Hat OpenShift", Vendor: "red-hat",
			Category: "orchestration", Licensing: "subscription",
			CostPerGPUYear: 900, PricingUnit: PricingPerNode, GPUsPerNode: 8, SetupCost: 30000,
			Expertise: "advanced",
			SupportTiers: map[SupportTier]float64{
				SupportBusiness:   900,
				SupportEnterprise: 1300,
			},
		},
		{
			Key: "openshift-ai", Name: "Red Hat OpenShift AI", Vendor: "red-hat",
			Category: "ai-platform", Licensing: "subscription",
			CostPerGPUYear: 1000, PricingUnit: PricingPerGPU, SetupCost: 15000,
			Dependencies: []string{"red-hat-openshift"},
			Expertise:    "intermediate",
		},
	}

	m := make(map[string]SoftwareComponent, len(components))
	for _, c := range components {
		m[c.Key] = c
	}
	return m
}

func builtinSoftwareStacks() map[string]SoftwareStack {
	stacks := []SoftwareStack{
		{
			Key: "nvidia-enterprise", Name: "NVIDIA Enterprise",
			Components:   []string{"nvidia-ai-enterprise", "base-command-manager", "slurm", "dcgm", "pytorch"},
			RequiredFTEs: 6, ScaleBand: "large",
		},
		{
			Key: "open-source-hpc", Name: "Open Source HPC",
			Components:   []string{"slurm", "dcgm", "pytorch", "prometheus-grafana"},
			RequiredFTEs: 8, ScaleBand: "any",
		},
		{
			// node-priced components only
			Key: "hpc-managed", Name: "Managed HPC",
			Components:   []string{"base-command-manager", "slurm"},
			RequiredFTEs: 4, ScaleBand: "medium",
		},
		{
			Key: "kubernetes-mlops", Name: "Kubernetes MLOps",
			Components:   []string{"kubernetes", "run-ai", "mlflow", "dcgm", "pytorch", "datadog-gpu"},
			RequiredFTEs: 5, ScaleBand: "large",
		},
		{
			Key: "openshift-ai", Name: "OpenShift AI",
			Components:   []string{"red-hat-openshift", "openshift-ai", "dcgm", "pytorch"},
			RequiredFTEs: 4, ScaleBand: "enterprise",
		},
	}

	m := make(map[string]SoftwareStack, len(stacks))
	for _, s := range stacks {
		m[s.Key] = s
	}
	return m
}
