package storage

import "sync"

// Dictionary interns label, edge-type and property names into dense ids via
// label(name) / edge_type(name) / property(name). It is shared by every accessor
// opened against the same graph — interning is a database-level concern, not a
// per-transaction one, so two concurrent transactions calling Label("Person") for the
// first time must still agree on the assigned id.
type Dictionary struct {
	mu sync.RWMutex

	labelByName map[string]LabelID
	labelNames  []string

	edgeTypeByName map[string]EdgeTypeID
	edgeTypeNames  []string

	propByName map[string]PropertyID
	propNames  []string
}

// NewDictionary creates an empty interning table.
func NewDictionary() *Dictionary {
	return &Dictionary{
		labelByName:    make(map[string]LabelID),
		edgeTypeByName: make(map[string]EdgeTypeID),
		propByName:     make(map[string]PropertyID),
	}
}

// Label interns name, assigning the next dense id on first use.
func (d *Dictionary) Label(name string) LabelID {
	d.mu.RLock()
	if id, ok := d.labelByName[name]; ok {
		d.mu.RUnlock()
		return id
	}
	d.mu.RUnlock()

	d.mu.Lock()
	defer d.mu.Unlock()
	if id, ok := d.labelByName[name]; ok {
		return id
	}
	id := LabelID(len(d.labelNames))
	d.labelNames = append(d.labelNames, name)
	d.labelByName[name] = id
	return id
}

// LabelName reverses a previously interned LabelID.
func (d *Dictionary) LabelName(id LabelID) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if int(id) >= len(d.labelNames) {
		return "", false
	}
	return d.labelNames[id], true
}

// EdgeType interns name, assigning the next dense id on first use.
func (d *Dictionary) EdgeType(name string) EdgeTypeID {
	d.mu.RLock()
	if id, ok := d.edgeTypeByName[name]; ok {
		d.mu.RUnlock()
		return id
	}
	d.mu.RUnlock()

	d.mu.Lock()
	defer d.mu.Unlock()
	if id, ok := d.edgeTypeByName[name]; ok {
		return id
	}
	id := EdgeTypeID(len(d.edgeTypeNames))
	d.edgeTypeNames = append(d.edgeTypeNames, name)
	d.edgeTypeByName[name] = id
	return id
}

// EdgeTypeName reverses a previously interned EdgeTypeID.
func (d *Dictionary) EdgeTypeName(id EdgeTypeID) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if int(id) >= len(d.edgeTypeNames) {
		return "", false
	}
	return d.edgeTypeNames[id], true
}

// Property interns name, assigning the next dense id on first use.
func (d *Dictionary) Property(name string) PropertyID {
	d.mu.RLock()
	if id, ok := d.propByName[name]; ok {
		d.mu.RUnlock()
		return id
	}
	d.mu.RUnlock()

	d.mu.Lock()
	defer d.mu.Unlock()
	if id, ok := d.propByName[name]; ok {
		return id
	}
	id := PropertyID(len(d.propNames))
	d.propNames = append(d.propNames, name)
	d.propByName[name] = id
	return id
}

// PropertyName reverses a previously interned PropertyID.
func (d *Dictionary) PropertyName(id PropertyID) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if int(id) >= len(d.propNames) {
		return "", false
	}
	return d.propNames[id], true
}
