package catalog

// Seed returns the built-in starter catalogs: the CMSIS global
// enable/disable intrinsics, NVIC per-vector calls, and a PRIMASK write
// rule, plus a small set of common Cortex-M handlers. Users edit from
// here rather than starting blank.
func Seed() *Catalogs {
	return &Catalogs{
		ISRs: []ISRDescriptor{
			{
				ID:           "isr-systick",
				FunctionName: "SysTick_Handler",
				Priority:     0,
				HardwareID:   "-1",
				Description:  "core tick, software-only vector",
			},
			{
				ID:           "isr-usart1",
				FunctionName: "USART1_IRQHandler",
				Priority:     5,
				HardwareID:   "37",
				Description:  "USART1 global interrupt",
			},
			{
				ID:           "isr-exti0",
				FunctionName: "EXTI0_IRQHandler",
				Priority:     6,
				HardwareID:   "EXTI0_VECTOR",
				Description:  "external line 0",
			},
		},
		Rules: []ControlRule{
			{
				ID:          "rule-disable-irq",
				Mode:        ModeFunctionCall,
				Identifier:  "__disable_irq",
				Pattern:     PatternSimple,
				Action:      ActionDisable,
				TargetScope: ScopeGlobal,
			},
			{
				ID:          "rule-enable-irq",
				Mode:        ModeFunctionCall,
				Identifier:  "__enable_irq",
				Pattern:     PatternSimple,
				Action:      ActionEnable,
				TargetScope: ScopeGlobal,
			},
			{
				ID:          "rule-nvic-enable",
				Mode:        ModeFunctionCall,
				Identifier:  "NVIC_EnableIRQ",
				Pattern:     PatternArgAsID,
				ArgIndex:    0,
				Action:      ActionEnable,
				TargetScope: ScopeSpecific,
			},
			{
				ID:          "rule-nvic-disable",
				Mode:        ModeFunctionCall,
				Identifier:  "NVIC_DisableIRQ",
				Pattern:     PatternArgAsID,
				ArgIndex:    0,
				Action:      ActionDisable,
				TargetScope: ScopeSpecific,
			},
			{
				ID:          "rule-primask-set",
				Mode:        ModeRegisterWrite,
				Identifier:  "PRIMASK",
				Pattern:     PatternWriteVal,
				MatchValue:  "1",
				Action:      ActionDisable,
				TargetScope: ScopeGlobal,
			},
			{
				ID:          "rule-iser-write",
				Mode:        ModeRegisterWrite,
				Identifier:  "NVIC_ISER0",
				Pattern:     PatternRegBitMapping,
				RegBitMode:  BitModeDynamic,
				RegPolarity: PolarityZeroDisables,
				Action:      ActionEnable,
				TargetScope: ScopeSpecific,
			},
		},
	}
}
