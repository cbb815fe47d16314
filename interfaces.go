package nixbase

import (
	"time"
)

// The interfaces below are the contract every storage backend
// implements.  Optional scalars come back as nil pointers when unset;
// optional lists come back as nil slices.  Methods taking nameOrID
// resolve the argument as an id if LooksLikeID says so and as a name
// otherwise.

// IEntity is anything with an id and timestamps.
type IEntity interface {
	ID() (string, error)
	// Location is the backend-specific address of the entity.
	Location() string
	CreatedAt() (time.Time, error)
	UpdatedAt() (time.Time, error)
	// SetUpdatedAt writes the timestamp only if none is recorded.
	SetUpdatedAt() error
	// ForceUpdatedAt always writes the current time.
	ForceUpdatedAt() error
	// ForceCreatedAt overwrites the creation time, for imports.
	ForceCreatedAt(t time.Time) error
}

type INamedEntity interface {
	IEntity
	Name() (string, error)
	Type() (string, error)
	SetType(typ string) error
	Definition() (*string, error)
	SetDefinition(def string) error
	RemoveDefinition() error
}

type IEntityWithMetadata interface {
	INamedEntity
	// Metadata returns nil, nil when no section is attached.
	Metadata() (ISection, error)
	HasMetadata() bool
	SetMetadata(sectionID string) error
	RemoveMetadata() error
}

// IEntityWithSources records provenance membership.  The sources
// stay owned by their block.
type IEntityWithSources interface {
	IEntityWithMetadata
	SourceCount() (int, error)
	HasSource(nameOrID string) bool
	GetSource(nameOrID string) (ISource, error)
	GetSourceAt(index int) (ISource, error)
	SourceIDs() ([]string, error)
	AddSource(nameOrID string) error
	RemoveSource(nameOrID string) (bool, error)
	SetSources(ids []string) error
}

type IFile interface {
	Location() string
	Mode() FileMode
	Format() (string, error)
	Version() ([]int, error)
	CreatedAt() (time.Time, error)
	UpdatedAt() (time.Time, error)
	SetUpdatedAt() error
	ForceUpdatedAt() error
	ForceCreatedAt(t time.Time) error

	BlockCount() (int, error)
	HasBlock(nameOrID string) bool
	GetBlock(nameOrID string) (IBlock, error)
	GetBlockAt(index int) (IBlock, error)
	CreateBlock(name, typ string) (IBlock, error)
	DeleteBlock(nameOrID string) (bool, error)

	SectionCount() (int, error)
	HasSection(nameOrID string) bool
	GetSection(nameOrID string) (ISection, error)
	GetSectionAt(index int) (ISection, error)
	CreateSection(name, typ string) (ISection, error)
	DeleteSection(nameOrID string) (bool, error)
	// FindSection searches the whole metadata tree by id.
	FindSection(id string) (ISection, error)
	// FindSections walks the metadata tree depth first, down to
	// maxDepth levels below the root sections (negative for
	// unlimited), keeping sections accepted by filter.
	FindSections(filter func(ISection) bool, maxDepth int) ([]ISection, error)

	IsOpen() bool
	Close() error
}

// ISourceContainer is shared by blocks and sources, both of which own
// child sources.
type ISourceContainer interface {
	SourceCount() (int, error)
	HasSource(nameOrID string) bool
	GetSource(nameOrID string) (ISource, error)
	GetSourceAt(index int) (ISource, error)
	CreateSource(name, typ string) (ISource, error)
	// DeleteSource removes the source and its whole subtree.
	DeleteSource(nameOrID string) (bool, error)
}

type IBlock interface {
	IEntityWithMetadata
	ISourceContainer
	// FindSource searches the block's whole source tree by name or
	// id.
	FindSource(nameOrID string) (ISource, error)

	DataArrayCount() (int, error)
	HasDataArray(nameOrID string) bool
	GetDataArray(nameOrID string) (IDataArray, error)
	GetDataArrayAt(index int) (IDataArray, error)
	CreateDataArray(name, typ string, dtype DataType, extent []int) (IDataArray, error)
	DeleteDataArray(nameOrID string) (bool, error)

	TagCount() (int, error)
	HasTag(nameOrID string) bool
	GetTag(nameOrID string) (ITag, error)
	GetTagAt(index int) (ITag, error)
	CreateTag(name, typ string, position []float64) (ITag, error)
	DeleteTag(nameOrID string) (bool, error)

	MultiTagCount() (int, error)
	HasMultiTag(nameOrID string) bool
	GetMultiTag(nameOrID string) (IMultiTag, error)
	GetMultiTagAt(index int) (IMultiTag, error)
	CreateMultiTag(name, typ string, positions string) (IMultiTag, error)
	DeleteMultiTag(nameOrID string) (bool, error)

	GroupCount() (int, error)
	HasGroup(nameOrID string) bool
	GetGroup(nameOrID string) (IGroup, error)
	GetGroupAt(index int) (IGroup, error)
	CreateGroup(name, typ string) (IGroup, error)
	// DeleteGroup removes the group only; its members stay in the
	// block.
	DeleteGroup(nameOrID string) (bool, error)
}

type ISource interface {
	IEntityWithMetadata
	ISourceContainer
}

type ISection interface {
	INamedEntity
	Repository() (*string, error)
	SetRepository(repo string) error
	RemoveRepository() error
	Mapping() (*string, error)
	SetMapping(mapping string) error
	RemoveMapping() error

	// Link returns nil, nil when the section links nowhere.
	Link() (ISection, error)
	SetLink(sectionID string) error
	RemoveLink() error
	// Parent returns nil, nil for a root section.
	Parent() (ISection, error)

	SectionCount() (int, error)
	HasSection(nameOrID string) bool
	GetSection(nameOrID string) (ISection, error)
	GetSectionAt(index int) (ISection, error)
	CreateSection(name, typ string) (ISection, error)
	DeleteSection(nameOrID string) (bool, error)

	PropertyCount() (int, error)
	HasProperty(nameOrID string) bool
	GetProperty(nameOrID string) (IProperty, error)
	GetPropertyAt(index int) (IProperty, error)
	// InheritedProperties is the union of the section's own
	// properties and those of the linked section not shadowed by a
	// local name.
	InheritedProperties() ([]IProperty, error)
	// GetPropertyByName falls back to the linked section's
	// properties.
	GetPropertyByName(name string) (IProperty, error)
	CreateProperty(name string, dtype DataType) (IProperty, error)
	CreatePropertyWithValue(name string, value Value) (IProperty, error)
	CreatePropertyWithValues(name string, values []Value) (IProperty, error)
	DeleteProperty(nameOrID string) (bool, error)
}

type IProperty interface {
	IEntity
	Name() (string, error)
	Definition() (*string, error)
	SetDefinition(def string) error
	RemoveDefinition() error
	Mapping() (*string, error)
	SetMapping(mapping string) error
	RemoveMapping() error
	DataType() (DataType, error)
	Unit() (*string, error)
	// SetUnit fails with ErrIllegalState once the property holds
	// values.
	SetUnit(unit string) error
	RemoveUnit() error
	Uncertainty() (*float64, error)
	SetUncertainty(u float64) error
	RemoveUncertainty() error

	ValueCount() (int, error)
	Values() ([]Value, error)
	SetValues(values []Value) error
	DeleteValues() error
}

type IDataArray interface {
	IEntityWithSources
	Label() (*string, error)
	SetLabel(label string) error
	RemoveLabel() error
	Unit() (*string, error)
	SetUnit(unit string) error
	RemoveUnit() error
	ExpansionOrigin() (*float64, error)
	SetExpansionOrigin(origin float64) error
	RemoveExpansionOrigin() error
	PolynomCoefficients() ([]float64, error)
	SetPolynomCoefficients(coefficients []float64) error
	RemovePolynomCoefficients() error

	DataType() (DataType, error)
	DataExtent() ([]int, error)
	SetDataExtent(extent []int) error
	HasData() bool
	// WriteData stores a slice whose element type matches DataType
	// and whose length is the product of DataExtent.
	WriteData(data interface{}) error
	// ReadData decodes the payload into a pointer to a slice of the
	// matching element type.
	ReadData(out interface{}) error
	// Data returns the payload as a freshly allocated slice.
	Data() (interface{}, error)

	DimensionCount() (int, error)
	GetDimension(index int) (IDimension, error)
	Dimensions() ([]IDimension, error)
	CreateSetDimension(index int) (ISetDimension, error)
	CreateRangeDimension(index int, ticks []float64) (IRangeDimension, error)
	CreateSampledDimension(index int, interval float64) (ISampledDimension, error)
	CreateAliasRangeDimension() (IRangeDimension, error)
	DeleteDimension(index int) (bool, error)
	DeleteDimensions() error
}

type IBaseTag interface {
	IEntityWithSources
	ReferenceCount() (int, error)
	HasReference(nameOrID string) bool
	GetReference(nameOrID string) (IDataArray, error)
	GetReferenceAt(index int) (IDataArray, error)
	ReferenceIDs() ([]string, error)
	AddReference(nameOrID string) error
	RemoveReference(nameOrID string) (bool, error)
	SetReferences(ids []string) error

	FeatureCount() (int, error)
	HasFeature(nameOrID string) bool
	// GetFeature matches the feature's own id first, then the id or
	// name of the data array it links.
	GetFeature(nameOrID string) (IFeature, error)
	GetFeatureAt(index int) (IFeature, error)
	CreateFeature(dataArray string, linkType LinkType) (IFeature, error)
	DeleteFeature(nameOrID string) (bool, error)
}

type ITag interface {
	IBaseTag
	Position() ([]float64, error)
	SetPosition(position []float64) error
	Extent() ([]float64, error)
	SetExtent(extent []float64) error
	RemoveExtent() error
	Units() ([]string, error)
	SetUnits(units []string) error
	RemoveUnits() error
}

type IMultiTag interface {
	IBaseTag
	Positions() (IDataArray, error)
	HasPositions() bool
	SetPositions(nameOrID string) error
	// Extents returns nil, nil when no extents are set.
	Extents() (IDataArray, error)
	SetExtents(nameOrID string) error
	RemoveExtents() error
	Units() ([]string, error)
	SetUnits(units []string) error
	RemoveUnits() error
}

// IGroup collects data arrays, tags and multitags of its block by
// reference.
type IGroup interface {
	IEntityWithSources

	DataArrayCount() (int, error)
	HasDataArray(nameOrID string) bool
	GetDataArray(nameOrID string) (IDataArray, error)
	GetDataArrayAt(index int) (IDataArray, error)
	DataArrayIDs() ([]string, error)
	AddDataArray(nameOrID string) error
	RemoveDataArray(nameOrID string) (bool, error)
	SetDataArrays(ids []string) error

	TagCount() (int, error)
	HasTag(nameOrID string) bool
	GetTag(nameOrID string) (ITag, error)
	GetTagAt(index int) (ITag, error)
	TagIDs() ([]string, error)
	AddTag(nameOrID string) error
	RemoveTag(nameOrID string) (bool, error)
	SetTags(ids []string) error

	MultiTagCount() (int, error)
	HasMultiTag(nameOrID string) bool
	GetMultiTag(nameOrID string) (IMultiTag, error)
	GetMultiTagAt(index int) (IMultiTag, error)
	MultiTagIDs() ([]string, error)
	AddMultiTag(nameOrID string) error
	RemoveMultiTag(nameOrID string) (bool, error)
	SetMultiTags(ids []string) error
}

type IFeature interface {
	IEntity
	LinkType() (LinkType, error)
	SetLinkType(lt LinkType) error
	Data() (IDataArray, error)
	SetData(nameOrID string) error
}

// IDimension is a closed union; the concrete value is always one of
// ISetDimension, IRangeDimension or ISampledDimension, as reported by
// DimensionType.
type IDimension interface {
	Location() string
	Index() (int, error)
	DimensionType() DimensionType
}

type ISetDimension interface {
	IDimension
	Labels() ([]string, error)
	SetLabels(labels []string) error
	RemoveLabels() error
}

type IRangeDimension interface {
	IDimension
	// IsAlias reports whether the ticks are the data array's own
	// data.
	IsAlias() bool
	Ticks() ([]float64, error)
	SetTicks(ticks []float64) error
	Label() (*string, error)
	SetLabel(label string) error
	RemoveLabel() error
	Unit() (*string, error)
	SetUnit(unit string) error
	RemoveUnit() error
	TickAt(index int) (float64, error)
	// IndexOf returns the index of the first tick >= position.
	IndexOf(position float64) (int, error)
}

type ISampledDimension interface {
	IDimension
	SamplingInterval() (float64, error)
	SetSamplingInterval(interval float64) error
	Offset() (*float64, error)
	SetOffset(offset float64) error
	RemoveOffset() error
	Label() (*string, error)
	SetLabel(label string) error
	RemoveLabel() error
	Unit() (*string, error)
	SetUnit(unit string) error
	RemoveUnit() error
	PositionAt(index int) (float64, error)
	IndexOf(position float64) (int, error)
}
