package source

import "github.com/roach88/ilsfeed/internal/change"

// The queries below read the ILS reporting views. Every query takes the
// watermark as $1 and yields one row per bibliographic record with the
// earliest qualifying change time.

const itemStatusQuery = `
SELECT l.bib_record_id, MIN(t.transaction_gmt)
FROM sierra_view.circ_trans t
JOIN sierra_view.bib_record_item_record_link l ON l.item_record_id = t.item_record_id
WHERE t.transaction_gmt > $1
GROUP BY l.bib_record_id`

const itemRecordQuery = `
SELECT l.bib_record_id, MIN(m.record_last_updated_gmt)
FROM sierra_view.record_metadata m
JOIN sierra_view.bib_record_item_record_link l ON l.item_record_id = m.id
WHERE m.record_type_code = 'i'
  AND m.record_last_updated_gmt > $1
GROUP BY l.bib_record_id`

const reservesQuery = `
SELECT l.bib_record_id, MIN(m.record_last_updated_gmt)
FROM sierra_view.record_metadata m
JOIN sierra_view.course_record_item_record_link c ON c.course_record_id = m.id
JOIN sierra_view.bib_record_item_record_link l ON l.item_record_id = c.item_record_id
WHERE m.record_type_code = 'r'
  AND m.record_last_updated_gmt > $1
GROUP BY l.bib_record_id`

const ordersQuery = `
SELECT l.bib_record_id, MIN(m.record_last_updated_gmt)
FROM sierra_view.record_metadata m
JOIN sierra_view.bib_record_order_record_link l ON l.order_record_id = m.id
WHERE m.record_type_code = 'o'
  AND m.record_last_updated_gmt > $1
GROUP BY l.bib_record_id`

const serialIssuesQuery = `
SELECT l.bib_record_id, MIN(m.record_last_updated_gmt)
FROM sierra_view.record_metadata m
JOIN sierra_view.bib_record_holding_record_link l ON l.holding_record_id = m.id
WHERE m.record_type_code = 'c'
  AND m.record_last_updated_gmt > $1
GROUP BY l.bib_record_id`

// ItemStatus reports records whose items were checked out, renewed or
// returned.
func ItemStatus() Source {
	return NewSQLSource(NameItemStatus, change.CauseItemStatus, itemStatusQuery)
}

// ItemRecord reports records whose item records were edited.
func ItemRecord() Source {
	return NewSQLSource(NameItemRecord, change.CauseItemRecord, itemRecordQuery)
}

// Reserves reports records whose items were added to or changed on a
// course reserve list.
func Reserves() Source {
	return NewSQLSource(NameReserves, change.CauseReserve, reservesQuery)
}

// Orders reports records with new or changed order records.
func Orders() Source {
	return NewSQLSource(NameOrders, change.CauseOrder, ordersQuery)
}

// SerialIssues reports records whose serial holdings had issues checked in.
func SerialIssues() Source {
	return NewSQLSource(NameSerialIssues, change.CauseSerialIssue, serialIssuesQuery)
}
