package pflege

// Ownership policy. These predicates are pure: callers load the target
// entities first so a missing record surfaces as not-found before any
// permission decision is made.

// CanReadProtokoll reports whether the viewer may read a protokoll or list
// its eintraege: the protokoll is public or the viewer owns it.
func CanReadProtokoll(p Protokoll, v Viewer) bool {
	return p.Public || (!v.Guest() && p.Ersteller == v.ID)
}

// CanWriteProtokoll reports whether the viewer may update or delete a
// protokoll. Only the owner may, admins included only when they own it.
func CanWriteProtokoll(p Protokoll, v Viewer) bool {
	return !v.Guest() && p.Ersteller == v.ID
}

// CanCreateEintrag reports whether the viewer may add an eintrag to the
// protokoll: it is public or owned by the viewer. The closed flag is checked
// separately so the caller can surface a distinct domain error.
func CanCreateEintrag(p Protokoll, v Viewer) bool {
	return !v.Guest() && (p.Public || p.Ersteller == v.ID)
}

// CanReadEintrag reports whether the viewer may read an eintrag: the parent
// protokoll is public, the viewer owns the protokoll, or the viewer authored
// the eintrag.
func CanReadEintrag(p Protokoll, e Eintrag, v Viewer) bool {
	if p.Public {
		return true
	}
	if v.Guest() {
		return false
	}
	return p.Ersteller == v.ID || e.Ersteller == v.ID
}

// CanEditEintrag reports whether the viewer may update or delete an eintrag:
// the viewer owns the parent protokoll or authored the eintrag.
func CanEditEintrag(p Protokoll, e Eintrag, v Viewer) bool {
	return !v.Guest() && (p.Ersteller == v.ID || e.Ersteller == v.ID)
}
