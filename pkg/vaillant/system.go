package vaillant

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Homes lists the homes (one system each) visible to the account
func (c *Client) Homes(ctx context.Context) ([]Home, error) {
	var homes []Home
	if err := c.call(ctx, http.MethodGet, c.apiBase+"/homes", nil, &homes); err != nil {
		return nil, err
	}
	c.log.V(1).Info("Homes", "count", len(homes))
	return homes, nil
}

// System returns the system with the given id, or the first home's system when id
// is empty. It returns nil without error when no such system exists.
func (c *Client) System(ctx context.Context, id string) (*System, error) {
	homes, err := c.Homes(ctx)
	if err != nil {
		return nil, err
	}

	var home *Home
	for i := range homes {
		if id == "" || homes[i].SystemID == id {
			home = &homes[i]
			break
		}
	}
	if home == nil {
		c.log.Info("System not found", "system_id", id, "homes", len(homes))
		return nil, nil
	}

	base, err := c.systemBase(ctx, home.SystemID)
	if err != nil {
		return nil, err
	}

	var doc systemDocument
	if err := c.call(ctx, http.MethodGet, base, nil, &doc); err != nil {
		return nil, err
	}
	system := doc.toSystem(home.SystemID, c.controls[home.SystemID])
	c.log.V(1).Info("System", "id", system.ID, "control", system.ControlIdentifier, "zones", len(system.Zones), "circuits", len(system.Circuits), "dhw", len(system.DomesticHotWater))
	return system, nil
}

// controlIdentifier tells which control API ("tli", "vrc700") serves the system
func (c *Client) controlIdentifier(ctx context.Context, systemID string) (string, error) {
	if control, ok := c.controls[systemID]; ok {
		return control, nil
	}
	var doc controlIdentifierDocument
	u := fmt.Sprintf("%s/systems/%s/meta-info/control-identifier", c.apiBase, url.PathEscape(systemID))
	if err := c.call(ctx, http.MethodGet, u, nil, &doc); err != nil {
		return "", err
	}
	if doc.ControlIdentifier == "" {
		return "", fmt.Errorf("no control identifier for system %s", systemID)
	}
	c.controls[systemID] = doc.ControlIdentifier
	return doc.ControlIdentifier, nil
}

func (c *Client) systemBase(ctx context.Context, systemID string) (string, error) {
	control, err := c.controlIdentifier(ctx, systemID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/systems/%s/%s", c.apiBase, url.PathEscape(systemID), control), nil
}
