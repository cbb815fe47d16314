/*

Nixbase is a container for scientific data: a typed graph of blocks,
data arrays, tags, sources and metadata sections.  This package holds
the backend-agnostic half of it -- the entity interfaces, error
kinds, enums and id helpers.  The filesystem storage engine lives in
the db subpackage.

Vocabulary:

- file: root of one container; owns the "data" (blocks) and
	"metadata" (root sections) collections plus the header
	attributes (format, version)
- entity: any persisted object with an immutable id and created_at /
	updated_at timestamps
- named entity: an entity that also carries name, type and an
	optional definition
- id: a UUID string assigned at creation; a string that parses as a
	UUID is treated as an id, anything else as a name
- block: top-level grouping of sources, data arrays, tags and
	multitags
- source: provenance tree node; owned by a block or a parent source,
	referenced by anything "with sources"
- section: metadata tree node holding properties and child sections;
	may link to one other section to inherit its properties
- property: named, typed list of values attached to a section
- data array: n-dimensional typed payload plus per-axis dimension
	descriptors
- dimension: axis descriptor attached by 1-based index to a data
	array; one of set, sampled or range
- tag, multitag: annotate regions of the data arrays they reference
- feature: typed association between a tag (or multitag) and a data
	array; tagged, untagged or indexed
- reference list: duplicate-free set of foreign ids, stored as links
	named by id

*/

package nixbase
