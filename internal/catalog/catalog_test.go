package catalog

import "testing"

func remoteEntry(name QualifiedName, server string) *ToolEntry {
	return &ToolEntry{
		Qualified:    name,
		Kind:         KindRemote,
		ServerName:   server,
		OriginalName: string(name),
		Tool:         Tool{Name: string(name), Description: "desc " + string(name)},
	}
}

func TestCatalog_InsertAndGet(t *testing.T) {
	c := New(&Filter{})
	c.Insert(remoteEntry("s__t1", "s"))

	entry, ok := c.Get("s__t1")
	if !ok {
		t.Fatal("expected entry to be found")
	}
	if entry.ServerName != "s" {
		t.Errorf("ServerName = %q, want s", entry.ServerName)
	}
}

func TestCatalog_CommandWinsOverLaterRemoteCollision(t *testing.T) {
	c := New(&Filter{})
	cmdEntry := &ToolEntry{Qualified: "dup", Kind: KindCommand, ServerName: "mycommand"}
	c.Insert(cmdEntry)

	inserted := c.Insert(remoteEntry("dup", "s"))
	if inserted {
		t.Error("expected remote insert to be rejected on command collision")
	}

	entry, _ := c.Get("dup")
	if entry.Kind != KindCommand {
		t.Errorf("Kind = %v, want KindCommand to have won", entry.Kind)
	}
}

func TestCatalog_LastWriterWinsForSameKind(t *testing.T) {
	c := New(&Filter{})
	c.Insert(remoteEntry("s__t1", "s"))
	c.Insert(remoteEntry("s__t1", "s-replacement"))

	entry, _ := c.Get("s__t1")
	if entry.ServerName != "s-replacement" {
		t.Errorf("ServerName = %q, want last writer s-replacement", entry.ServerName)
	}
}

func TestCatalog_InsertionOrderPreserved(t *testing.T) {
	c := New(&Filter{})
	c.Insert(remoteEntry("b", "s"))
	c.Insert(remoteEntry("a", "s"))
	c.Insert(remoteEntry("c", "s"))

	all := c.All()
	if len(all) != 3 || all[0].Qualified != "b" || all[1].Qualified != "a" || all[2].Qualified != "c" {
		t.Errorf("All() = %v, want insertion order b,a,c", all)
	}
}

func TestCatalog_DynamicDiscoveryGating(t *testing.T) {
	c := New(&Filter{EnableDynamicDiscovery: true})
	c.Insert(remoteEntry("s__t1", "s"))

	if c.Listable("s__t1") {
		t.Error("expected not listable before dynamic enablement")
	}
	// Still searchable even though not yet listable.
	if len(c.SearchableEntries()) != 1 {
		t.Error("expected dynamic-gated entry to remain searchable")
	}

	c.EnableDynamic("s__t1")
	if !c.Listable("s__t1") {
		t.Error("expected listable after EnableDynamic")
	}
}

func TestCatalog_HiddenEntryNeverListableOrSearchable(t *testing.T) {
	c := New(&Filter{})
	hidden := remoteEntry("cmd__x__y", "x")
	hidden.Hidden = true
	c.Insert(hidden)

	if c.Listable("cmd__x__y") {
		t.Error("hidden entry must never be listable")
	}
	for _, e := range c.SearchableEntries() {
		if e.Qualified == "cmd__x__y" {
			t.Error("hidden entry must never be searchable")
		}
	}
	if _, ok := c.Get("cmd__x__y"); !ok {
		t.Error("hidden entry must remain in mapping table (invocable)")
	}
}

func TestCatalog_ListableEntriesRespectsFilter(t *testing.T) {
	c := New(&Filter{HideTools: []string{"s__secret"}})
	c.Insert(remoteEntry("s__ok", "s"))
	c.Insert(remoteEntry("s__secret", "s"))

	listable := c.ListableEntries()
	if len(listable) != 1 || listable[0].Qualified != "s__ok" {
		t.Errorf("ListableEntries = %v, want only s__ok", listable)
	}
}
