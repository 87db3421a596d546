/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package registry

// Placeholder stands in for a widget whose type is not registered. It
// renders a typed marker so the hosting layer can show "unknown widget"
// instead of failing the whole canvas.
type Placeholder struct {
	Type string
}

func (p Placeholder) Render(config map[string]any, _ any) (any, error) {
	return map[string]any{
		"placeholder": true,
		"widgetType":  p.Type,
		"config":      config,
	}, nil
}
