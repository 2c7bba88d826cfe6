package entity

// Template описывает, какую сущность создать для тайла карты
type Template struct {
	Kind            Kind
	TextureFileName string
	ModelFileName   string
}

// Шаблоны индексируются id тайла. В редакторе карт пустой шаблон не используется,
// поэтому id редактора на единицу меньше индекса в этой таблице.
var templates = []Template{
	{Kind: KindNone},
	{Kind: KindStart},
	{Kind: KindEnd},
	{Kind: KindWall, TextureFileName: "./assets/textures/wall1.png"},
	{Kind: KindWall, TextureFileName: "./assets/textures/wall2.png"},
	{Kind: KindActor, ModelFileName: "./assets/models/enemy.m3d"},
	{Kind: KindItem},
}

// Идентификаторы шаблонов
const (
	TemplateNone  = 0
	TemplateStart = 1
	TemplateEnd   = 2
	TemplateWall1 = 3
	TemplateWall2 = 4
	TemplateEnemy = 5
	TemplateItem  = 6
)

// TemplatesTotal количество зарегистрированных шаблонов
func TemplatesTotal() int {
	return len(templates)
}

// TemplateForTile возвращает шаблон по id тайла
func TemplateForTile(id int) (Template, bool) {
	if id < 0 || id >= len(templates) {
		return Template{}, false
	}
	return templates[id], true
}

// TemplateIDFromTiled переводит id тайла из редактора карт в индекс шаблона.
// Пустые клетки редактора (-1) становятся пустым шаблоном.
func TemplateIDFromTiled(tiledID int) int {
	if tiledID < 0 {
		return TemplateNone
	}
	return tiledID + 1
}
