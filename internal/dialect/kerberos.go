// Copyright (c) 2025 sqlexplorer
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dialect

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// renderKrb5Conf builds a krb5.conf for the connection's realms.
func renderKrb5Conf(k *Kerberos) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[libdefaults]\ndefault_realm = %s\ndns_lookup_realm = false\ndns_lookup_kdc = false\n\n[realms]\n", k.DefaultRealm)
	realms := make([]string, 0, len(k.Realms))
	for r := range k.Realms {
		realms = append(realms, r)
	}
	sort.Strings(realms)
	for _, realm := range realms {
		fmt.Fprintf(&b, "  %s = {\n", realm)
		cfg := k.Realms[realm]
		keys := make([]string, 0, len(cfg))
		for key := range cfg {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Fprintf(&b, "    %s = %s\n", key, cfg[key])
		}
		b.WriteString("  }\n")
	}
	return b.String()
}

// kinit writes krb5.conf and obtains a ticket from the connection's keytab.
func kinit(ctx context.Context, id string, k *Kerberos) error {
	if k.Principal == "" {
		return fmt.Errorf("hive-kerberos connection %s has no principal", id)
	}
	env := os.Environ()
	if k.ConfPath != "" && k.DefaultRealm != "" {
		if err := os.MkdirAll(filepath.Dir(k.ConfPath), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(k.ConfPath, []byte(renderKrb5Conf(k)), 0o644); err != nil {
			return fmt.Errorf("write krb5.conf: %w", err)
		}
		env = append(env, "KRB5_CONFIG="+k.ConfPath)
	}

	cmd := exec.CommandContext(ctx, "kinit", "-kt", k.Keytab, k.Principal)
	cmd.Env = env
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("kinit %s: %w: %s", k.Principal, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
