package service

type ServiceInterface interface {
	Exists(id int64) (bool, error)
	Insert(o OrderDTO) (int64, error)
	Modify(o OrderDTO) (bool, error)
	Delete(id int64) (bool, error)
	Save(o OrderDTO) (int64, bool, error)
	FindByID(id int64) (*OrderDTO, error)
	List(filter func(OrderDTO) bool) ([]OrderDTO, error)
	ListProducts() ([]ProductDTO, error)
}
